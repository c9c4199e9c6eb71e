package testxml

// Report tags.
const (
	TagTestMethod        = "test_method"
	TagFilePath          = "file_path"
	TagEmpty             = "empty"
	TagComment           = "comment"
	TagStatement         = "statement"
	TagMethodCall        = "methodCall"
	TagAssert            = "assert"
	TagAssertLiterals    = "assert_literals"
	TagLiteral           = "literal"
	TagAssertionRoulette = "assertion_roulette"
	TagDuplicatedAsserts = "duplicated_asserts"
	TagDuplicatedAssert  = "duplicated_assert"
	TagPrint             = "print"
	TagLoopFor           = "loopFor"
	TagForEach           = "forEach"
	TagVariable          = "variable"
	TagIterable          = "iterable"
	TagIf                = "if"
	TagElse              = "else"
	TagWhile             = "while"
	TagTry               = "try"
	TagCatch             = "catch"
	TagFinally           = "finally"
)
