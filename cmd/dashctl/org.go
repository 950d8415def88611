package main

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/dashboard"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/views"
)

func runOrgCmd(args []string, stdout, stderr io.Writer) int {
	switch args[0] {
	case "list":
		return runOrgListCmd(args[1:], stdout, stderr)
	case "find":
		return runOrgFindCmd(args[1:], stdout, stderr)
	case "mine":
		return runOrgMineCmd(args[1:], stdout, stderr)
	case "show":
		return runOrgShowCmd(args[1:], stdout, stderr)
	case "create":
		return runOrgCreateCmd(args[1:], stdout, stderr)
	case "select":
		return runOrgSelectCmd(args[1:], stdout, stderr)
	case "update":
		return runOrgUpdateCmd(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown org subcommand: %s\n", args[0])
		return 2
	}
}

func runOrgListCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("org list", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)
	name := cmd.String("name", "", "Filter by name substring")
	page := cmd.Uint("page", 0, "Page number, 1-based")
	limit := cmd.Uint("limit", 0, "Page size")

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

	list, err := a.client.ListOrganizations(ctx, *name, uint32(*page), uint32(*limit))
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		out := map[string]any{"organizations": orgsJSON(list.Organizations)}
		if list.Page != nil {
			out["page"] = map[string]any{
				"page":     list.Page.Page,
				"limit":    list.Page.Limit,
				"total":    list.Page.Total,
				"has_more": list.Page.HasMore,
			}
		}
		return printJSON(stdout, out)
	}

	for _, org := range list.Organizations {
		fmt.Fprintf(stdout, "%s  %s\n", org.ID, org.Name)
	}
	if list.Page != nil {
		fmt.Fprintf(stdout, "page %d, %d total, more=%t\n", list.Page.Page, list.Page.Total, list.Page.HasMore)
	}
	return 0
}

func runOrgFindCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("org find", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)
	name := cmd.String("name", "", "Organization name to search for (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *name == "" {
		fmt.Fprintln(stderr, "Error: --name is required")
		cmd.Usage()
		return 2
	}

	a, err := buildApp(common, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	ctx, cancel := a.callCtx()
	defer cancel()

	orgs, err := a.client.FindOrganizationsByName(ctx, *name)
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		return printJSON(stdout, map[string]any{"organizations": orgsJSON(orgs)})
	}
	for _, org := range orgs {
		fmt.Fprintf(stdout, "%s  %s\n", org.ID, org.Name)
	}
	return 0
}

func runOrgMineCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("org mine", flag.ContinueOnError)
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

	orgs, err := a.client.MyOrganizations(ctx)
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		return printJSON(stdout, map[string]any{"organizations": orgsJSON(orgs)})
	}
	for _, org := range orgs {
		fmt.Fprintf(stdout, "%s  %s\n", org.ID, org.Name)
	}
	return 0
}

func runOrgShowCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("org show", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)
	idText := cmd.String("id", "", "Organization principal (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *idText == "" {
		fmt.Fprintln(stderr, "Error: --id is required")
		cmd.Usage()
		return 2
	}
	id, err := candid.ParsePrincipal(*idText)
	if err != nil {
		return fail(stderr, fmt.Errorf("parse --id: %w", err))
	}

	a, err := buildApp(common, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	ctx, cancel := a.callCtx()
	defer cancel()

	org, err := a.client.Organization(ctx, id)
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		return printJSON(stdout, orgJSON(org))
	}
	printOrg(stdout, org)
	return 0
}

func runOrgCreateCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("org create", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)
	name := cmd.String("name", "", "Organization name (REQUIRED)")
	desc := cmd.String("desc", "", "Organization description")
	meta := cmd.String("meta", "", "Metadata pairs, key=value comma-separated")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *name == "" {
		fmt.Fprintln(stderr, "Error: --name is required")
		cmd.Usage()
		return 2
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

	out, err := a.client.CreateOrganizationForOwner(ctx, dashboard.CreateOrganizationInput{
		Name:        *name,
		Description: *desc,
		Metadata:    pairs,
	})
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		return printJSON(stdout, map[string]any{
			"organization": orgJSON(out.Organization),
			"role":         out.AuthContext.Role.String(),
		})
	}
	fmt.Fprintf(stdout, "Created %s (%s)\n", out.Organization.Name, out.Organization.ID)
	fmt.Fprintf(stdout, "Role is now %s\n", out.AuthContext.Role)
	return 0
}

func runOrgSelectCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("org select", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)
	idText := cmd.String("id", "", "Organization principal (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *idText == "" {
		fmt.Fprintln(stderr, "Error: --id is required")
		cmd.Usage()
		return 2
	}
	id, err := candid.ParsePrincipal(*idText)
	if err != nil {
		return fail(stderr, fmt.Errorf("parse --id: %w", err))
	}

	a, err := buildApp(common, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	ctx, cancel := a.callCtx()
	defer cancel()

	auth, err := a.client.SelectActiveOrganization(ctx, id)
	if err != nil {
		return fail(stderr, err)
	}

	active := ""
	if auth.BrandOwner != nil && auth.BrandOwner.ActiveOrganization != nil {
		active = auth.BrandOwner.ActiveOrganization.Name
	}
	if common.jsonOut {
		return printJSON(stdout, map[string]any{"active_organization": active})
	}
	fmt.Fprintf(stdout, "Active organization: %s\n", active)
	return 0
}

func runOrgUpdateCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("org update", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)
	idText := cmd.String("id", "", "Organization principal (REQUIRED)")
	name := cmd.String("name", "", "New name (REQUIRED)")
	desc := cmd.String("desc", "", "New description")
	meta := cmd.String("meta", "", "Metadata pairs, key=value comma-separated")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *idText == "" || *name == "" {
		fmt.Fprintln(stderr, "Error: --id and --name are required")
		cmd.Usage()
		return 2
	}
	id, err := candid.ParsePrincipal(*idText)
	if err != nil {
		return fail(stderr, fmt.Errorf("parse --id: %w", err))
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

	org, err := a.client.UpdateOrganization(ctx, dashboard.UpdateOrganizationInput{
		ID:          id,
		Name:        *name,
		Description: *desc,
		Metadata:    pairs,
	})
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		return printJSON(stdout, orgJSON(org))
	}
	fmt.Fprintf(stdout, "Updated %s\n", org.Name)
	return 0
}

func runAnalyticsCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("analytics", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)
	orgText := cmd.String("org", "", "Organization principal (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *orgText == "" {
		fmt.Fprintln(stderr, "Error: --org is required")
		cmd.Usage()
		return 2
	}
	orgID, err := candid.ParsePrincipal(*orgText)
	if err != nil {
		return fail(stderr, fmt.Errorf("parse --org: %w", err))
	}

	a, err := buildApp(common, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	ctx, cancel := a.callCtx()
	defer cancel()

	analytics, err := a.client.OrganizationAnalytics(ctx, orgID)
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		return printJSON(stdout, map[string]any{
			"total_products":           analytics.TotalProducts,
			"active_resellers":         analytics.ActiveResellers,
			"verifications_this_month": analytics.VerificationsThisMonth,
		})
	}
	fmt.Fprintf(stdout, "Products:                %d\n", analytics.TotalProducts)
	fmt.Fprintf(stdout, "Active resellers:        %d\n", analytics.ActiveResellers)
	fmt.Fprintf(stdout, "Verifications (30 days): %d\n", analytics.VerificationsThisMonth)
	return 0
}

func printOrg(w io.Writer, org views.Organization) {
	fmt.Fprintf(w, "ID:          %s\n", org.ID)
	fmt.Fprintf(w, "Name:        %s\n", org.Name)
	if org.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", org.Description)
	}
	keys := make([]string, 0, len(org.Metadata))
	for k := range org.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "Meta:        %s=%s\n", k, org.Metadata[k])
	}
	if !org.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated:     %s\n", org.UpdatedAt.Format(time.RFC3339))
	}
}

func orgJSON(org views.Organization) map[string]any {
	out := map[string]any{
		"id":   org.ID.String(),
		"name": org.Name,
	}
	if org.Description != "" {
		out["description"] = org.Description
	}
	if len(org.Metadata) > 0 {
		out["metadata"] = org.Metadata
	}
	if !org.UpdatedAt.IsZero() {
		out["updated_at"] = org.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

func orgsJSON(orgs []views.Organization) []map[string]any {
	out := make([]map[string]any, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, orgJSON(org))
	}
	return out
}
