// Command dashctl drives the TrueOrigin dashboard client from the terminal:
// sessions, organizations, reseller certification and product verification,
// all through the same cached facade the dashboard uses.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/api"
)

const cliVersion = "v0.3.0"

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run dispatches to a subcommand and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stdout)
		return 2
	}

	switch args[1] {
	case "login":
		return runLoginCmd(args[2:], stdout, stderr)
	case "logout":
		return runLogoutCmd(args[2:], stdout, stderr)
	case "whoami":
		return runWhoamiCmd(args[2:], stdout, stderr)
	case "nav":
		return runNavCmd(args[2:], stdout, stderr)
	case "roles":
		return runRolesCmd(args[2:], stdout, stderr)
	case "org":
		if len(args) < 3 {
			fmt.Fprintln(stderr, "Usage: dashctl org <list|find|mine|show|create|select|update>")
			return 2
		}
		return runOrgCmd(args[2:], stdout, stderr)
	case "analytics":
		return runAnalyticsCmd(args[2:], stdout, stderr)
	case "reseller":
		if len(args) < 3 {
			fmt.Fprintln(stderr, "Usage: dashctl reseller <cert|complete>")
			return 2
		}
		return runResellerCmd(args[2:], stdout, stderr)
	case "verify":
		return runVerifyCmd(args[2:], stdout, stderr)
	case "redeem":
		return runRedeemCmd(args[2:], stdout, stderr)
	case "rate":
		return runRateCmd(args[2:], stdout, stderr)
	case "product":
		return runProductCmd(args[2:], stdout, stderr)
	case "user":
		return runUserCmd(args[2:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "dashctl %s (envelope %s)\n", cliVersion, api.Version)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

// ANSI Colors
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorGreen = "\033[32m"
	ColorBlue  = "\033[34m"
	ColorCyan  = "\033[36m"
	ColorGray  = "\033[37m"
)

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%sTrueOrigin dashctl %s%s\n", ColorBold+ColorBlue, cliVersion, ColorReset)
	fmt.Fprintf(w, "%sOne counterfeit caught pays for the whole thing.%s\n", ColorGray, ColorReset)
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%sUSAGE:%s\n", ColorBold, ColorReset)
	fmt.Fprintln(w, "  dashctl <command> [flags]")
	fmt.Fprintln(w, "")

	printSection(w, "SESSION")
	printCommand(w, "login", "Create or import an identity and start a session")
	printCommand(w, "logout", "End the session and clear local state")
	printCommand(w, "whoami", "Show the active principal and session view")
	printCommand(w, "nav", "Show the header navigation state")
	printCommand(w, "roles", "List roles open for self-assignment")

	printSection(w, "ORGANIZATIONS")
	printCommand(w, "org list", "List organizations (--name --page --limit)")
	printCommand(w, "org find", "Search organizations by name (--name)")
	printCommand(w, "org mine", "List organizations owned by the caller")
	printCommand(w, "org show", "Show one organization (--id)")
	printCommand(w, "org create", "Create an organization for the caller")
	printCommand(w, "org select", "Switch the active organization (--id)")
	printCommand(w, "org update", "Update an organization (--id --name --desc)")
	printCommand(w, "analytics", "Show per-organization analytics (--org)")

	printSection(w, "RESELLER")
	printCommand(w, "reseller cert", "Show the certification page")
	printCommand(w, "reseller complete", "Complete the reseller profile (--org --name)")

	printSection(w, "VERIFICATION")
	printCommand(w, "verify", "Verify a product code (--product --serial --code)")
	printCommand(w, "redeem", "Redeem a first-verification reward")
	printCommand(w, "rate", "Show the verification budget (--product)")

	printSection(w, "UTILITIES")
	printCommand(w, "product", "Show one product (--id)")
	printCommand(w, "user", "Show one user (--id)")
	printCommand(w, "version", "Show version information")
	printCommand(w, "help", "Show this help")
	fmt.Fprintln(w, "")
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "%s%s:%s\n", ColorBold+ColorCyan, title, ColorReset)
}

func printCommand(w io.Writer, name, desc string) {
	fmt.Fprintf(w, "  %s%-18s%s %s\n", ColorGreen, name, ColorReset, desc)
}
