package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xolan/tpsheet/internal/config"
)

// completionCmd represents the completion command
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for tpsheet.

The completion command allows you to generate shell completion scripts for
bash, zsh, fish, and powershell. This enables tab-completion for commands,
flags, and the --task codes in your shell.

Usage:
  tpsheet completion bash       Generate bash completion script
  tpsheet completion zsh        Generate zsh completion script
  tpsheet completion fish       Generate fish completion script
  tpsheet completion powershell Generate powershell completion script

Installation Instructions:

Bash:
  # Load completion temporarily (current session only):
  source <(tpsheet completion bash)

  # Install completion permanently:
  # Linux:
  tpsheet completion bash > ~/.local/share/bash-completion/completions/tpsheet

  # macOS (requires bash-completion from Homebrew):
  tpsheet completion bash > $(brew --prefix)/etc/bash_completion.d/tpsheet

Zsh:
  # Load completion temporarily (current session only):
  source <(tpsheet completion zsh)

  # Install completion permanently:
  # Add to ~/.zshrc:
  echo 'fpath=(~/.zsh/completion $fpath)' >> ~/.zshrc
  echo 'autoload -Uz compinit && compinit' >> ~/.zshrc

  # Generate completion file:
  mkdir -p ~/.zsh/completion
  tpsheet completion zsh > ~/.zsh/completion/_tpsheet

  # Then restart your shell

Fish:
  # Install completion permanently:
  tpsheet completion fish > ~/.config/fish/completions/tpsheet.fish

PowerShell:
  # Open your PowerShell profile:
  notepad $PROFILE

  # Add this line to your profile:
  tpsheet completion powershell | Out-String | Invoke-Expression

  # Save and restart PowerShell`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.ExactValidArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		generateCompletion(args[0])
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
	_ = rootCmd.RegisterFlagCompletionFunc("task", completeTaskCodes)
}

// completeTaskCodes offers "code=" for every task in the config.
func completeTaskCodes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	tasks := config.DefaultTasks()
	if path, err := deps.ConfigPath(); err == nil {
		if cfg, err := config.LoadOrDefault(path); err == nil {
			tasks = cfg.Tasks
		}
	}

	codes := make([]string, 0, len(tasks))
	for code, spec := range tasks {
		if strings.HasPrefix(code, toComplete) {
			codes = append(codes, code+"=\t"+spec.Label)
		}
	}
	sort.Strings(codes)
	return codes, cobra.ShellCompDirectiveNoSpace
}

// generateCompletion generates the appropriate completion script based on shell type
func generateCompletion(shell string) {
	var err error

	switch shell {
	case "bash":
		err = rootCmd.GenBashCompletion(deps.Stdout)
	case "zsh":
		err = rootCmd.GenZshCompletion(deps.Stdout)
	case "fish":
		err = rootCmd.GenFishCompletion(deps.Stdout, true)
	case "powershell":
		err = rootCmd.GenPowerShellCompletionWithDesc(deps.Stdout)
	default:
		_, _ = fmt.Fprintf(deps.Stderr, "Error: Unsupported shell '%s'\n", shell)
		_, _ = fmt.Fprintln(deps.Stderr, "Supported shells: bash, zsh, fish, powershell")
		deps.Exit(1)
		return
	}

	if err != nil {
		_, _ = fmt.Fprintf(deps.Stderr, "Error: Failed to generate %s completion: %v\n", shell, err)
		deps.Exit(1)
		return
	}
}
