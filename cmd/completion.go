package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate completion script",
	Long: `Generate shell completion script for tripline.

To load completions:

Bash:
  $ source <(tripline completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ tripline completion bash > /etc/bash_completion.d/tripline
  # macOS:
  $ tripline completion bash > $(brew --prefix)/etc/bash_completion.d/tripline

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ tripline completion zsh > "${fpath[1]}/_tripline"

  # For oh-my-zsh users:
  $ mkdir -p ~/.oh-my-zsh/custom/plugins/tripline
  $ tripline completion zsh > ~/.oh-my-zsh/custom/plugins/tripline/_tripline
  # Then add 'tripline' to your plugins array in ~/.zshrc:
  # plugins=(... tripline)

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ tripline completion fish | source

  # To load completions for each session, execute once:
  $ tripline completion fish > ~/.config/fish/completions/tripline.fish

PowerShell:
  PS> tripline completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> tripline completion powershell > tripline.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
