package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/agent"
)

func runLoginCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("login", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)
	seedHex := cmd.String("seed", "", "Hex-encoded 32-byte seed for a deterministic identity")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	pass := passphrase()
	if len(pass) == 0 {
		fmt.Fprintln(stderr, "Error: TRUEORIGIN_PASSPHRASE must be set to protect the stored identity")
		return 2
	}

	a, err := buildApp(common, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	var id *agent.Identity
	if *seedHex != "" {
		seed, decodeErr := hex.DecodeString(*seedHex)
		if decodeErr != nil {
			return fail(stderr, fmt.Errorf("parse seed: %w", decodeErr))
		}
		id, err = agent.IdentityFromSeed(seed)
	} else {
		id, err = agent.NewIdentity()
	}
	if err != nil {
		return fail(stderr, err)
	}

	if err := agent.SaveIdentity(a.cfg.KeystorePath, id, pass); err != nil {
		return fail(stderr, err)
	}
	a.client.Login(id)

	ctx, cancel := a.callCtx()
	defer cancel()

	auth, err := a.client.InitializeSession(ctx)
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		return printJSON(stdout, map[string]any{
			"principal":  id.Principal().String(),
			"registered": auth.IsRegistered,
			"role":       auth.Role.String(),
		})
	}
	fmt.Fprintf(stdout, "Logged in as %s (role %s)\n", id.Principal(), auth.Role)
	return 0
}

func runLogoutCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("logout", flag.ContinueOnError)
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

	if !a.client.Authenticated() {
		fmt.Fprintln(stdout, "Not logged in")
		return 0
	}

	ctx, cancel := a.callCtx()
	defer cancel()

	out, err := a.client.Logout(ctx)
	if err != nil {
		a.log.Warn("remote logout failed, local state cleared anyway", "error", err)
	}

	if rmErr := os.Remove(a.cfg.KeystorePath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		return fail(stderr, rmErr)
	}

	if common.jsonOut {
		return printJSON(stdout, map[string]any{
			"message":  out.Message,
			"redirect": out.RedirectURL,
		})
	}
	if out.Message != "" {
		fmt.Fprintln(stdout, out.Message)
	} else {
		fmt.Fprintln(stdout, "Logged out")
	}
	return 0
}

func runWhoamiCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("whoami", flag.ContinueOnError)
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

	auth, err := a.client.AuthContext(ctx)
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		out := map[string]any{
			"principal":     a.client.Principal().String(),
			"authenticated": a.client.Authenticated(),
			"registered":    auth.IsRegistered,
			"role":          auth.Role.String(),
		}
		if auth.User != nil {
			out["display_name"] = auth.User.DisplayName()
		}
		if auth.BrandOwner != nil && auth.BrandOwner.ActiveOrganization != nil {
			out["active_organization"] = auth.BrandOwner.ActiveOrganization.Name
		}
		return printJSON(stdout, out)
	}

	fmt.Fprintf(stdout, "Principal:  %s\n", a.client.Principal())
	fmt.Fprintf(stdout, "Registered: %t\n", auth.IsRegistered)
	fmt.Fprintf(stdout, "Role:       %s\n", auth.Role)
	if auth.User != nil {
		fmt.Fprintf(stdout, "Name:       %s\n", auth.User.DisplayName())
	}
	if auth.BrandOwner != nil && auth.BrandOwner.ActiveOrganization != nil {
		fmt.Fprintf(stdout, "Active org: %s\n", auth.BrandOwner.ActiveOrganization.Name)
	}
	if auth.Reseller != nil && auth.Reseller.CertificationCode != "" {
		fmt.Fprintf(stdout, "Cert code:  %s\n", auth.Reseller.CertificationCode)
	}
	return 0
}

func runNavCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("nav", flag.ContinueOnError)
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

	nav, err := a.client.NavigationContext(ctx)
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		return printJSON(stdout, map[string]any{
			"display_name": nav.DisplayName,
			"avatar_id":    nav.AvatarID,
			"organization": nav.OrganizationName,
		})
	}
	fmt.Fprintf(stdout, "Name:         %s\n", nav.DisplayName)
	if nav.AvatarID != "" {
		fmt.Fprintf(stdout, "Avatar:       %s\n", nav.AvatarID)
	}
	if nav.OrganizationName != "" {
		fmt.Fprintf(stdout, "Organization: %s\n", nav.OrganizationName)
	}
	return 0
}

func runRolesCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("roles", flag.ContinueOnError)
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

	roles, err := a.client.AvailableRoles(ctx)
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		names := make([]string, 0, len(roles))
		for _, role := range roles {
			names = append(names, role.String())
		}
		return printJSON(stdout, map[string]any{"roles": names})
	}
	for _, role := range roles {
		fmt.Fprintln(stdout, role)
	}
	return 0
}
