package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdeditor <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Run the editor in the browser")
	fmt.Fprintln(w, "  export     Export markdown files to standalone HTML (and PDF)")
	fmt.Fprintln(w, "  format     Normalize markdown formatting")
	fmt.Fprintln(w, "  polish     Rewrite for grammar and flow with AI")
	fmt.Fprintln(w, "  typeset    Fix spacing and punctuation with AI")
	fmt.Fprintln(w, "  themes     List preview themes")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  doctor     Check browser and AI setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdeditor help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed logs and timing")
}

func printEditorFlags(w io.Writer) {
	fmt.Fprintln(w, "Appearance:")
	fmt.Fprintln(w, "  -t, --theme <id>          Theme ID (see 'mdeditor themes')")
	fmt.Fprintln(w, "      --custom-css <path>   Stylesheet for the custom theme")
	fmt.Fprintln(w, "      --asset-path <dir>    Override embedded styles and templates")
}

func printPageFlags(w io.Writer) {
	fmt.Fprintln(w, "PDF Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: letter, a4, legal")
	fmt.Fprintln(w, "      --orientation <s>     Orientation: portrait, landscape")
	fmt.Fprintln(w, "      --margin <f>          Margin in inches (0-3)")
}

func printAIFlags(w io.Writer) {
	fmt.Fprintln(w, "AI:")
	fmt.Fprintln(w, "      --ai-provider <s>     Provider: gemini, openai")
	fmt.Fprintln(w, "      --ai-model <s>        Model (provider default when empty)")
	fmt.Fprintln(w, "      --ai-timeout <d>      Request timeout (e.g., 60s, 2m)")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdeditor serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve the editor on a local address. Every open browser tab edits")
	fmt.Fprintln(w, "the same document.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default 127.0.0.1:4173)")
	fmt.Fprintln(w, "  -s, --seed <source>       Initial document: embedded, URL or file")
	fmt.Fprintln(w, "      --allow-origin <url>  Extra allowed browser origin (repeatable)")
	fmt.Fprintln(w, "      --clipboard           Mirror copied code to the system clipboard")
	fmt.Fprintln(w, "      --no-pdf              Disable PDF export")
	fmt.Fprintln(w, "  -w, --workers <n>         PDF browsers (0 = auto)")
	fmt.Fprintln(w)
	printEditorFlags(w)
	fmt.Fprintln(w)
	printPageFlags(w)
	fmt.Fprintln(w)
	printAIFlags(w)
	fmt.Fprintln(w)
	printCommonFlags(w)
	fmt.Fprintln(w)
	printEnvVars(w)
}

// printExportUsage prints usage for the export command.
func printExportUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdeditor export <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export markdown files to self-contained HTML documents.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    File, directory, or glob such as 'notes/**/*.md'")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Files found in a directory or glob keep their subdirectories under the")
	fmt.Fprintln(w, "output directory. Two inputs that map to the same output are an error.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --pdf                 Also print each document to PDF")
	fmt.Fprintln(w, "      --no-clobber          Keep existing files, add a numeric suffix")
	fmt.Fprintln(w)
	printEditorFlags(w)
	fmt.Fprintln(w)
	printPageFlags(w)
	fmt.Fprintln(w)
	printCommonFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  mdeditor export notes.md")
	fmt.Fprintln(w, "  mdeditor export 'docs/**/*.md' -o build --theme academic --pdf")
}

// printTransformUsage prints usage for format, polish and typeset.
func printTransformUsage(w io.Writer, name string) {
	fmt.Fprintf(w, "Usage: mdeditor %s [file] [flags]\n", name)
	fmt.Fprintln(w)
	switch name {
	case "format":
		fmt.Fprintln(w, "Normalize markdown formatting. Runs offline.")
	case "polish":
		fmt.Fprintln(w, "Rewrite for grammar and flow. Requires an AI API key.")
	case "typeset":
		fmt.Fprintln(w, "Fix spacing and punctuation without changing wording. Requires an AI API key.")
	}
	fmt.Fprintln(w, "Reads stdin when file is omitted or '-'. Writes stdout unless -w or -o.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -w, --write               Write the result back to the input file")
	fmt.Fprintln(w, "  -o, --output <path>       Write the result to this file")
	if name != "format" {
		fmt.Fprintln(w)
		printAIFlags(w)
	}
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printThemesUsage prints usage for the themes command.
func printThemesUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdeditor themes")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List the preview themes and their code highlighting styles.")
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdeditor config [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration after the file and environment are applied.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdeditor doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome for PDF export, AI keys and the clipboard.")
}

func printEnvVars(w io.Writer) {
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MDEDITOR_CONFIG, MDEDITOR_ADDR, MDEDITOR_THEME, MDEDITOR_SEED,")
	fmt.Fprintln(w, "  MDEDITOR_CUSTOM_CSS, MDEDITOR_OUTPUT_DIR, MDEDITOR_ASSET_PATH,")
	fmt.Fprintln(w, "  MDEDITOR_AI_PROVIDER, MDEDITOR_AI_MODEL, MDEDITOR_AI_BASE_URL,")
	fmt.Fprintln(w, "  MDEDITOR_AI_TIMEOUT, MDEDITOR_PAGE_SIZE, MDEDITOR_ORIENTATION,")
	fmt.Fprintln(w, "  MDEDITOR_WORKERS")
	fmt.Fprintln(w, "  GEMINI_API_KEY or OPENAI_API_KEY enable polish and typeset.")
}

// runHelp prints help for a command, or the main usage.
func runHelp(args []string, w io.Writer) {
	if len(args) == 0 {
		printUsage(w)
		return
	}

	switch args[0] {
	case "serve":
		printServeUsage(w)
	case "export":
		printExportUsage(w)
	case "format", "polish", "typeset":
		printTransformUsage(w, args[0])
	case "themes":
		printThemesUsage(w)
	case "config":
		printConfigUsage(w)
	case "doctor":
		printDoctorUsage(w)
	case "version":
		fmt.Fprintln(w, "Usage: mdeditor version")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Show version information.")
	case "help":
		fmt.Fprintln(w, "Usage: mdeditor help [command]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Show help for a command.")
	default:
		fmt.Fprintf(w, "Unknown command: %s\n\n", args[0])
		printUsage(w)
	}
}
