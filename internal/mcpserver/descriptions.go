package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and what comes back.

func describeConvert() string {
	return `Converts the test methods of one Java source file into XML reports without writing any files.

USE WHEN:
- Reviewing the structure of a single test class
- Checking a test for assertion smells before committing it
- Getting a compact, model-friendly view of what each test asserts

INTERPRETING RESULTS:
- One document per test method, in source order; overloads get keys name_2, name_3
- <assertion_roulette> means the method has two or more assertions that lack a failure message
- <duplicated_assert count="N"> means the same assertion appears N times in the method
- <statement> records are statements that are not control flow, assertions or prints
- broken: true means the file had syntax errors and the report comes from the recovered tree

METRICS RETURNED:
- Per method: name, key, line, assertions, assertion_roulette, duplicated_asserts, xml
- With format xml: the documents only, separated by blank lines`
}

func describeGenerate() string {
	return `Generates XML reports for every test method in the Java sources under the given paths and writes them to disk.

USE WHEN:
- Producing reports for a whole test suite
- Refreshing reports after tests changed
- Auditing a codebase for assertion roulette and duplicated asserts

INTERPRETING RESULTS:
- Reports go next to the sources unless out_dir is set, in which case the source tree is mirrored
- Method mode writes <ClassFile>/<method>.xml; file mode writes <ClassFile>.xml
- Files without test methods produce no report
- failed counts files that could not be read, parsed or written; their error is listed per file
- cached counts unchanged files whose reports were reused

METRICS RETURNED:
- Summary: files, succeeded, failed, skipped, cached, methods, written, assertions, assertion_roulette, duplicated_asserts
- Per file: source, outputs, methods, smell counts and any error`
}
