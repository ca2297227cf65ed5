package fund

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"

	"github.com/RonShih/onchainfund-platform/internal/chainerr"
	"github.com/RonShih/onchainfund-platform/internal/contracts"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// navAction is the user's choice at the end of a wizard step.
type navAction int

const (
	navNext navAction = iota
	navBack
)

// applyNav moves the stepper per the user's choice.
func applyNav(stepper *Stepper, nav navAction) {
	if nav == navBack {
		stepper.Back()
	} else {
		stepper.Next()
	}
}

func navSelect(value *navAction) *huh.Select[navAction] {
	return huh.NewSelect[navAction]().
		Title("Navigation").
		Options(
			huh.NewOption("Continue", navNext),
			huh.NewOption("Go back", navBack),
		).
		Value(value)
}

func printStep(stepper *Stepper) {
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("ONCHAINFUND — CREATE VAULT"))
	fmt.Println(stepStyle.Render(fmt.Sprintf("STEP %d/%d: %s",
		stepper.Current()+1, len(Steps), strings.ToUpper(stepper.Name()))))
}

// parseRate parses a percentage entry. Blank means zero; anything else
// must be a number.
func parseRate(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, chainerr.NewValidation(field, "malformed fee rate %q", raw)
	}
	return value, nil
}

func validRate(raw string) error {
	_, err := parseRate("rate", raw)
	return err
}

// RunWizard walks the creation steps interactively and returns the
// completed form. Navigation is free in both directions; only the
// review step's submission validates. account is the connected wallet
// account, used as the default fee recipient.
func RunWizard(account common.Address) (*Form, error) {
	form := DefaultForm(account)
	stepper := NewStepper()

	for {
		printStep(stepper)

		var (
			nav navAction
			err error
		)
		switch stepper.Current() {
		case StepIntro:
			nav, err = stepIntro()
		case StepBasics:
			nav, err = stepBasics(&form)
		case StepFees:
			nav, err = stepFees(&form)
		case StepDeposits:
			nav, err = stepDeposits(&form)
		case StepTransferability:
			nav, err = stepInfo("Share transfer restrictions are managed by the vault contracts; nothing to configure here.\n")
		case StepRedemptions:
			nav, err = stepRedemptions(&form)
		case StepAssetManagement:
			nav, err = stepInfo("Asset management settings use the deployment defaults.\n")
		case StepReview:
			confirmed, reviewNav, reviewErr := stepReview(&form)
			if reviewErr != nil {
				return nil, reviewErr
			}
			if confirmed {
				if err := form.Validate(); err != nil {
					return nil, err
				}
				return &form, nil
			}
			nav = reviewNav
		}
		if err != nil {
			return nil, err
		}
		applyNav(stepper, nav)
	}
}

func stepIntro() (navAction, error) {
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render(
		"Set up your vault's basics, fees, and deposit policy.\n" +
			"Nothing is sent on-chain until you confirm at the review step.\n"))
	var proceed bool
	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Ready to configure your vault?").
			Value(&proceed),
	)).Run(); err != nil {
		return navNext, err
	}
	if !proceed {
		return navNext, fmt.Errorf("wizard aborted")
	}
	return navNext, nil
}

func stepBasics(form *Form) (navAction, error) {
	denomOptions := make([]huh.Option[string], 0, len(contracts.DenominationAssets))
	for _, asset := range contracts.DenominationAssets {
		denomOptions = append(denomOptions, huh.NewOption(
			fmt.Sprintf("%s — %s", asset.Symbol, asset.Name),
			asset.Address.Hex(),
		))
	}
	denomChoice := form.DenominationAsset.Hex()
	nav := navNext
	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Vault name").
			Description("The name of your vault.").
			Value(&form.Name),
		huh.NewInput().
			Title("Symbol").
			Description("Token ticker of the vault's tokenized shares.").
			Value(&form.Symbol),
		huh.NewSelect[string]().
			Title("Denomination asset").
			Description("The asset deposits and performance are measured in. Semi-permanent setting.").
			Options(denomOptions...).
			Value(&denomChoice),
		navSelect(&nav),
	)).Run(); err != nil {
		return nav, err
	}
	form.DenominationAsset = common.HexToAddress(denomChoice)
	return nav, nil
}

func stepFees(form *Form) (navAction, error) {
	managementRate := strconv.FormatFloat(form.ManagementFee.Rate, 'f', -1, 64)
	performanceRate := strconv.FormatFloat(form.PerformanceFee.Rate, 'f', -1, 64)
	entranceRate := strconv.FormatFloat(form.EntranceFee.Rate, 'f', -1, 64)
	entranceRecipient := ""
	nav := navNext
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Charge management fee?").
				Value(&form.ManagementFee.Enabled),
			huh.NewInput().
				Title("Management fee rate (%)").
				Description("Annual percentage of total assets.").
				Validate(validRate).
				Value(&managementRate),
			huh.NewConfirm().
				Title("Charge performance fee?").
				Value(&form.PerformanceFee.Enabled),
			huh.NewInput().
				Title("Performance fee rate (%)").
				Description("Percentage of profits, subject to a high-water mark.").
				Validate(validRate).
				Value(&performanceRate),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Charge entrance fee?").
				Description("Charged on every new deposit. Semi-permanent setting.").
				Value(&form.EntranceFee.Enabled),
			huh.NewInput().
				Title("Entrance fee rate (%)").
				Validate(validRate).
				Value(&entranceRate),
			huh.NewInput().
				Title("Entrance fee recipient (blank = vault owner)").
				Value(&entranceRecipient),
			huh.NewConfirm().
				Title("Charge exit fee?").
				Value(&form.ExitFeeEnabled),
			navSelect(&nav),
		),
	).Run(); err != nil {
		return nav, err
	}

	var err error
	if form.ManagementFee.Rate, err = parseRate("management-fee-rate", managementRate); err != nil {
		return nav, err
	}
	if form.PerformanceFee.Rate, err = parseRate("performance-fee-rate", performanceRate); err != nil {
		return nav, err
	}
	if form.EntranceFee.Rate, err = parseRate("entrance-fee-rate", entranceRate); err != nil {
		return nav, err
	}
	if entranceRecipient != "" {
		if !common.IsHexAddress(entranceRecipient) {
			return nav, fmt.Errorf("malformed entrance fee recipient %q", entranceRecipient)
		}
		form.EntranceFee.Recipient = common.HexToAddress(entranceRecipient)
	}
	return nav, nil
}

func stepDeposits(form *Form) (navAction, error) {
	whitelistRaw := strings.Join(form.Whitelist.Checksummed(), "\n")
	nav := navNext
	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Restrict deposits to an allow-list?").
			Value(&form.Whitelist.Enabled),
		huh.NewText().
			Title("Allowed depositor addresses (one per line)").
			Value(&whitelistRaw),
		navSelect(&nav),
	)).Run(); err != nil {
		return nav, err
	}
	// Rebuild from scratch so a revisited step does not accumulate
	// duplicates.
	form.Whitelist.Addresses = nil
	if form.Whitelist.Enabled {
		for _, line := range strings.Split(whitelistRaw, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if err := form.Whitelist.Add(line); err != nil {
				return nav, err
			}
		}
	}
	return nav, nil
}

func stepInfo(message string) (navAction, error) {
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render(message))
	nav := navNext
	if err := huh.NewForm(huh.NewGroup(
		navSelect(&nav),
	)).Run(); err != nil {
		return nav, err
	}
	return nav, nil
}

func stepRedemptions(form *Form) (navAction, error) {
	lockupHours := strconv.FormatUint(form.ShareLockupHours, 10)
	nav := navNext
	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Shares lock-up period (hours)").
			Description("Time that must pass after a deposit before those shares can be redeemed or transferred.").
			Value(&lockupHours),
		navSelect(&nav),
	)).Run(); err != nil {
		return nav, err
	}
	parsedLockup, err := strconv.ParseUint(strings.TrimSpace(lockupHours), 10, 64)
	if err != nil {
		return nav, fmt.Errorf("lock-up hours: %w", err)
	}
	form.ShareLockupHours = parsedLockup
	return nav, nil
}

type reviewChoice int

const (
	reviewCreate reviewChoice = iota
	reviewBack
	reviewAbort
)

func stepReview(form *Form) (confirmed bool, nav navAction, err error) {
	fmt.Println(renderReview(form))
	choice := reviewCreate
	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[reviewChoice]().
			Title("Create this vault on-chain?").
			Options(
				huh.NewOption("Create", reviewCreate),
				huh.NewOption("Go back", reviewBack),
				huh.NewOption("Abort", reviewAbort),
			).
			Value(&choice),
	)).Run(); err != nil {
		return false, navNext, err
	}
	switch choice {
	case reviewBack:
		return false, navBack, nil
	case reviewAbort:
		return false, navNext, fmt.Errorf("wizard aborted at review")
	}
	return true, navNext, nil
}

func renderReview(form *Form) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Name:                %s\n", form.Name)
	fmt.Fprintf(&b, "  Symbol:              %s\n", form.Symbol)
	fmt.Fprintf(&b, "  Denomination asset:  %s\n", form.DenominationAsset.Hex())
	fmt.Fprintf(&b, "  Lock-up:             %dh\n", form.ShareLockupHours)
	fmt.Fprintf(&b, "  Management fee:      %s\n", feeSummary(form.ManagementFee.Enabled, form.ManagementFee.Rate))
	fmt.Fprintf(&b, "  Performance fee:     %s\n", feeSummary(form.PerformanceFee.Enabled, form.PerformanceFee.Rate))
	fmt.Fprintf(&b, "  Entrance fee:        %s\n", feeSummary(form.EntranceFee.Enabled, form.EntranceFee.Rate))
	fmt.Fprintf(&b, "  Exit fee:            %v\n", form.ExitFeeEnabled)
	if form.Whitelist.Enabled {
		fmt.Fprintf(&b, "  Deposit allow-list:  %d address(es)\n", len(form.Whitelist.Addresses))
	} else {
		fmt.Fprintf(&b, "  Deposit allow-list:  disabled\n")
	}
	return b.String()
}

func feeSummary(enabled bool, rate float64) string {
	if !enabled {
		return "disabled"
	}
	return fmt.Sprintf("%g%%", rate)
}
