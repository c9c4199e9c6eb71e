package main

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/panbanda/testxml/internal/output"
	"github.com/panbanda/testxml/internal/service/generate"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Print the XML reports of one Java file",
	Long: `Converts the test methods of a single Java file and prints the documents,
separated by blank lines, without writing report files.

Examples:
  testxml convert CalcTest.java
  testxml convert CalcTest.java --compact -o CalcTest.xml
  testxml convert CalcTest.java -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("format", "f", "xml", "Output format: xml, text, json, markdown, toon")
	convertCmd.Flags().StringP("output", "o", "", "Write output to file")
	convertCmd.Flags().Bool("compact", false, "Render each document on one line")
	convertCmd.Flags().String("smells", "", "Smell placement: before, after or inline")
	convertCmd.Flags().Bool("include-path", false, "Add a file_path record to every document")
	convertCmd.Flags().Bool("strict", false, "Fail on syntax errors")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return err
	}

	svc, err := generate.New(generate.WithConfig(cfg), generate.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	conv, err := svc.ConvertFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if conv.Broken {
		warnf(cmd, "%s has syntax errors; reporting the recovered tree", args[0])
	}

	format, _ := cmd.Flags().GetString("format")
	outFile, _ := cmd.Flags().GetString("output")
	if strings.EqualFold(format, "xml") {
		if len(conv.Methods) == 0 {
			warnf(cmd, "No test methods found in %s", args[0])
			return nil
		}
		formatter, err := newFormatter(cmd, output.FormatText, outFile, false)
		if err != nil {
			return err
		}
		defer formatter.Close()
		_, err = io.WriteString(formatter.Writer(), conv.Document())
		return err
	}

	formatter, err := newFormatter(cmd, output.ParseFormat(format), outFile, cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(conversionTable(conv))
}

// conversionTable lists the methods of conv; JSON and TOON get conv itself.
func conversionTable(conv *generate.Conversion) *output.Table {
	rows := make([][]string, 0, len(conv.Methods))
	for _, m := range conv.Methods {
		rows = append(rows, []string{
			m.Key,
			strconv.Itoa(m.Line),
			strconv.Itoa(m.Assertions),
			strconv.Itoa(m.Roulette),
			strconv.Itoa(m.Duplicated),
		})
	}
	return output.NewTable(conv.Path, []string{"Method", "Line", "Asserts", "Roulette", "Duplicated"}, rows, nil, conv)
}
