package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for Guidecast",
	Long:  `Configure API keys and create the directory layout Guidecast expects.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("🎧 Guidecast Setup"))

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Creating directories", createDirectories},
		{"Configuring environment", configureEnv},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return nil
}

func createDirectories() error {
	dirs := []string{
		"outputs",
		filepath.Join("outputs", "tracks"),
		filepath.Join("prompts", "info_retrieval"),
		filepath.Join("prompts", "script_generation"),
	}

	return runWithSpinner("Creating directories", func() error {
		for _, dir := range dirs {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
		}
		return nil
	})
}

func configureEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	env := make(map[string]string)

	if err := configureLLMKeys(env); err != nil {
		return err
	}
	if err := configureTTSKey(env); err != nil {
		return err
	}
	if err := configureStorage(env); err != nil {
		return err
	}

	return writeEnvFile(env)
}

func configureLLMKeys(env map[string]string) error {
	var provider string
	if err := huh.NewSelect[string]().
		Title("Language model provider").
		Options(
			huh.NewOption("OpenAI", "openai"),
			huh.NewOption("Groq", "groq"),
		).
		Value(&provider).
		Run(); err != nil {
		return err
	}

	switch provider {
	case "groq":
		var key string
		if err := huh.NewInput().
			Title("GROQ API Key").
			Description("https://console.groq.com/keys").
			EchoMode(huh.EchoModePassword).
			Value(&key).
			Validate(required("GROQ API Key")).
			Run(); err != nil {
			return err
		}
		env["GROQ_API_KEY"] = strings.TrimSpace(key)
	default:
		var key string
		if err := huh.NewInput().
			Title("OpenAI API Key").
			Description("https://platform.openai.com/api-keys").
			EchoMode(huh.EchoModePassword).
			Value(&key).
			Validate(required("OpenAI API Key")).
			Run(); err != nil {
			return err
		}
		env["OPENAI_API_KEY"] = strings.TrimSpace(key)
	}

	return nil
}

func configureTTSKey(env map[string]string) error {
	var key string
	if err := huh.NewInput().
		Title("Gemini API Key").
		Description("Required for audio synthesis — https://aistudio.google.com/apikey").
		EchoMode(huh.EchoModePassword).
		Value(&key).
		Run(); err != nil {
		return err
	}

	key = strings.TrimSpace(key)
	if key != "" {
		env["GEMINI_API_KEY"] = key
	}
	return nil
}

func configureStorage(env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Mirror artifacts to Cloud Storage?").
		Description("Uploads finished files to a GCS bucket (optional)").
		Value(&setup).
		Run(); err != nil {
		return err
	}
	if !setup {
		return nil
	}

	var bucket string
	if err := huh.NewInput().
		Title("GCS Bucket").
		Placeholder("my-guidecast-artifacts").
		Value(&bucket).
		Run(); err != nil {
		return err
	}

	bucket = strings.TrimSpace(bucket)
	if bucket != "" {
		env["GCS_BUCKET"] = bucket
	}
	return nil
}

func writeEnvFile(env map[string]string) error {
	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	order := []string{
		"OPENAI_API_KEY",
		"GROQ_API_KEY",
		"GEMINI_API_KEY",
		"GCS_BUCKET",
	}

	for _, key := range order {
		if val, ok := env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(f, "%s=%s\n", key, val)
		}
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	printNextSteps()
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Add prompt templates to: prompts/")
	fmt.Println("  2. Try a dry run: guidecast generate \"Seokguram Grotto\" --dry-run")
	fmt.Println("  3. Build a track: guidecast batch -f track.yaml")
}

func required(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
