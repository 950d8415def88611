package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/dashboard"
)

func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)
	productText := cmd.String("product", "", "Product principal (REQUIRED)")
	serialText := cmd.String("serial", "", "Serial number principal (REQUIRED)")
	code := cmd.String("code", "", "Unique code printed on the product (REQUIRED)")
	printVersion := cmd.Uint("print-version", 0, "Print version of the code")
	nonce := cmd.String("nonce", "", "Replay nonce, generated when omitted")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *productText == "" || *serialText == "" || *code == "" {
		fmt.Fprintln(stderr, "Error: --product, --serial, and --code are required")
		cmd.Usage()
		return 2
	}
	productID, err := candid.ParsePrincipal(*productText)
	if err != nil {
		return fail(stderr, fmt.Errorf("parse --product: %w", err))
	}
	serialNo, err := candid.ParsePrincipal(*serialText)
	if err != nil {
		return fail(stderr, fmt.Errorf("parse --serial: %w", err))
	}
	if *nonce == "" {
		*nonce = uuid.NewString()
	}

	a, err := buildApp(common, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	ctx, cancel := a.callCtx()
	defer cancel()

	outcome, err := a.client.VerifyProduct(ctx, dashboard.VerifyProductInput{
		ProductID:    productID,
		SerialNo:     serialNo,
		PrintVersion: uint8(*printVersion),
		UniqueCode:   *code,
		Timestamp:    uint64(time.Now().UnixNano()),
		Nonce:        *nonce,
	})
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		out := map[string]any{
			"status":  outcome.Status.String(),
			"genuine": outcome.Status.Genuine(),
		}
		if outcome.Rewards != nil {
			out["points"] = outcome.Rewards.Points
			out["first_verification"] = outcome.Rewards.FirstVerification
		}
		if !outcome.ExpiresAt.IsZero() {
			out["reward_expires_at"] = outcome.ExpiresAt.Format(time.RFC3339)
		}
		return printJSON(stdout, out)
	}

	fmt.Fprintf(stdout, "Status:  %s\n", outcome.Status)
	fmt.Fprintf(stdout, "Genuine: %t\n", outcome.Status.Genuine())
	if outcome.Rewards != nil {
		fmt.Fprintf(stdout, "Points:  %d", outcome.Rewards.Points)
		if outcome.Rewards.FirstVerification {
			fmt.Fprint(stdout, " (first verification)")
		}
		fmt.Fprintln(stdout)
		if outcome.Rewards.Description != "" {
			fmt.Fprintf(stdout, "Reward:  %s\n", outcome.Rewards.Description)
		}
	}
	if !outcome.ExpiresAt.IsZero() {
		fmt.Fprintf(stdout, "Expires: %s\n", outcome.ExpiresAt.Format(time.RFC3339))
	}
	return 0
}

func runRedeemCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("redeem", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)
	productText := cmd.String("product", "", "Product principal (REQUIRED)")
	serialText := cmd.String("serial", "", "Serial number principal (REQUIRED)")
	code := cmd.String("code", "", "Unique code printed on the product (REQUIRED)")
	wallet := cmd.String("wallet", "", "Wallet address receiving the reward (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *productText == "" || *serialText == "" || *code == "" || *wallet == "" {
		fmt.Fprintln(stderr, "Error: --product, --serial, --code, and --wallet are required")
		cmd.Usage()
		return 2
	}
	productID, err := candid.ParsePrincipal(*productText)
	if err != nil {
		return fail(stderr, fmt.Errorf("parse --product: %w", err))
	}
	serialNo, err := candid.ParsePrincipal(*serialText)
	if err != nil {
		return fail(stderr, fmt.Errorf("parse --serial: %w", err))
	}

	a, err := buildApp(common, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	ctx, cancel := a.callCtx()
	defer cancel()

	out, err := a.client.RedeemReward(ctx, dashboard.RedeemRewardInput{
		ProductID:     productID,
		SerialNo:      serialNo,
		UniqueCode:    *code,
		WalletAddress: *wallet,
	})
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		return printJSON(stdout, map[string]any{
			"success":        out.Success,
			"transaction_id": out.TransactionID,
			"message":        out.Message,
		})
	}
	if out.Success {
		fmt.Fprintf(stdout, "Redeemed, transaction %s\n", out.TransactionID)
	} else {
		fmt.Fprintf(stdout, "Rejected: %s\n", out.Message)
		return 1
	}
	return 0
}

func runRateCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("rate", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)
	productText := cmd.String("product", "", "Product principal (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *productText == "" {
		fmt.Fprintln(stderr, "Error: --product is required")
		cmd.Usage()
		return 2
	}
	productID, err := candid.ParsePrincipal(*productText)
	if err != nil {
		return fail(stderr, fmt.Errorf("parse --product: %w", err))
	}

	a, err := buildApp(common, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	ctx, cancel := a.callCtx()
	defer cancel()

	limit, err := a.client.VerificationRateLimit(ctx, productID)
	if err != nil {
		return fail(stderr, err)
	}

	if common.jsonOut {
		return printJSON(stdout, map[string]any{
			"remaining_attempts": limit.RemainingAttempts,
			"exhausted":          limit.Exhausted(),
			"resets_at":          limit.ResetAt.Format(time.RFC3339),
		})
	}
	fmt.Fprintf(stdout, "Remaining: %d\n", limit.RemainingAttempts)
	fmt.Fprintf(stdout, "Resets:    %s\n", limit.ResetAt.Format(time.RFC3339))
	if limit.Exhausted() {
		fmt.Fprintln(stdout, "Budget exhausted, wait for the window to reset")
	}
	return 0
}

func runProductCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("product", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)
	idText := cmd.String("id", "", "Product principal (REQUIRED)")

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

	product, err := a.client.Product(ctx, id)
	if err != nil {
		return fail(stderr, err)
	}
	if product == nil {
		fmt.Fprintln(stderr, "Product not found")
		return 1
	}

	if common.jsonOut {
		return printJSON(stdout, map[string]any{
			"id":           product.ID.String(),
			"name":         product.Name,
			"organization": product.OrgID.String(),
			"category":     product.Category,
			"description":  product.Description,
		})
	}
	fmt.Fprintf(stdout, "ID:           %s\n", product.ID)
	fmt.Fprintf(stdout, "Name:         %s\n", product.Name)
	fmt.Fprintf(stdout, "Organization: %s\n", product.OrgID)
	if product.Category != "" {
		fmt.Fprintf(stdout, "Category:     %s\n", product.Category)
	}
	if product.Description != "" {
		fmt.Fprintf(stdout, "Description:  %s\n", product.Description)
	}
	return 0
}

func runUserCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("user", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var common commonFlags
	common.register(cmd)
	idText := cmd.String("id", "", "User principal (REQUIRED)")

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

	account, err := a.client.UserByID(ctx, id)
	if err != nil {
		return fail(stderr, err)
	}
	if account == nil {
		fmt.Fprintln(stderr, "User not found")
		return 1
	}

	if common.jsonOut {
		return printJSON(stdout, map[string]any{
			"id":      account.ID.String(),
			"role":    account.Role.String(),
			"email":   account.Email,
			"enabled": account.Enabled,
		})
	}
	fmt.Fprintf(stdout, "ID:      %s\n", account.ID)
	fmt.Fprintf(stdout, "Role:    %s\n", account.Role)
	if account.Email != "" {
		fmt.Fprintf(stdout, "Email:   %s\n", account.Email)
	}
	fmt.Fprintf(stdout, "Enabled: %t\n", account.Enabled)
	return 0
}
