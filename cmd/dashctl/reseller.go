package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/dashboard"
)

func runResellerCmd(args []string, stdout, stderr io.Writer) int {
	switch args[0] {
	case "cert":
		return runResellerCertCmd(args[1:], stdout, stderr)
	case "complete":
		return runResellerCompleteCmd(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown reseller subcommand: %s\n", args[0])
		return 2
	}
}

func runResellerCertCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("reseller cert", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	a, err := buildApp(common, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	ctx, cancel := a.callCtx()
	defer cancel()

	cert, err := a.client.MyResellerCertification(ctx)
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		return printJSON(stdout, map[string]any{
			"certification_code": cert.CertificationCode,
			"certified_at":       cert.CertifiedAt.Format(time.RFC3339),
			"organization":       orgJSON(cert.Organization),
			"reseller":           cert.Profile.Name,
			"verified":           cert.Profile.Verified,
		})
	}
	fmt.Fprintf(stdout, "Code:         %s\n", cert.CertificationCode)
	fmt.Fprintf(stdout, "Certified:    %s\n", cert.CertifiedAt.Format(time.RFC3339))
	fmt.Fprintf(stdout, "Organization: %s\n", cert.Organization.Name)
	fmt.Fprintf(stdout, "Reseller:     %s\n", cert.Profile.Name)
	fmt.Fprintf(stdout, "Verified:     %t\n", cert.Profile.Verified)
	return 0
}

func runResellerCompleteCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("reseller complete", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)
	orgText := cmd.String("org", "", "Target organization principal (REQUIRED)")
	name := cmd.String("name", "", "Reseller display name (REQUIRED)")
	email := cmd.String("email", "", "Contact email")
	phone := cmd.String("phone", "", "Contact phone")
	shops := cmd.String("shops", "", "Ecommerce URLs, platform=url comma-separated")
	meta := cmd.String("meta", "", "Metadata pairs, key=value comma-separated")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *orgText == "" || *name == "" {
		fmt.Fprintln(stderr, "Error: --org and --name are required")
		cmd.Usage()
		return 2
	}
	orgID, err := candid.ParsePrincipal(*orgText)
	if err != nil {
		return fail(stderr, fmt.Errorf("parse --org: %w", err))
	}
	urls, err := parsePairs(*shops)
	if err != nil {
		return fail(stderr, err)
	}
	pairs, err := parsePairs(*meta)
	if err != nil {
		return fail(stderr, err)
	}

	a, err := buildApp(common, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	ctx, cancel := a.callCtx()
	defer cancel()

	auth, err := a.client.CompleteResellerProfile(ctx, dashboard.ResellerProfileInput{
		OrganizationID: orgID,
		Name:           *name,
		ContactEmail:   *email,
		ContactPhone:   *phone,
		EcommerceURLs:  urls,
		Metadata:       pairs,
	})
	if err != nil {
		return fail(stderr, err)
	}

	code := ""
	if auth.Reseller != nil {
		code = auth.Reseller.CertificationCode
	}
	if common.jsonOut {
		return printJSON(stdout, map[string]any{
			"role":               auth.Role.String(),
			"certification_code": code,
		})
	}
	fmt.Fprintf(stdout, "Profile complete, role is now %s\n", auth.Role)
	if code != "" {
		fmt.Fprintf(stdout, "Certification code: %s\n", code)
	}
	return 0
}
