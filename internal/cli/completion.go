package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialgen/pkg/catalog"
	"github.com/matzehuels/spatialgen/pkg/config"
	"github.com/matzehuels/spatialgen/pkg/enumerate"
	"github.com/matzehuels/spatialgen/pkg/render"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// completionCommand generates shell completion scripts.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for spatialgen.

Bash:
  $ source <(spatialgen completion bash)

Zsh:
  $ spatialgen completion zsh > "${fpath[1]}/_spatialgen"

Fish:
  $ spatialgen completion fish > ~/.config/fish/completions/spatialgen.fish

PowerShell:
  PS> spatialgen completion powershell | Out-String | Invoke-Expression

Object ids complete from the catalog named by --properties or the config.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}

// registerCompletions attaches value completions to the flags cmd defines.
func (c *CLI) registerCompletions(cmd *cobra.Command) {
	fixed := func(values ...string) cobra.CompletionFunc {
		return cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp)
	}
	relations := make([]string, len(scene.Relations))
	for i, r := range scene.Relations {
		relations[i] = r.String()
	}
	flags := map[string]cobra.CompletionFunc{
		"direction": fixed(relations...),
		"engine":    fixed(render.Engines()...),
		"format":    fixed(render.FormatPNG, render.FormatWebP),
		"sweep":     fixed(string(enumerate.SweepNone), string(enumerate.SweepQuarterTurns)),
		"objects":   c.completeObjects,
	}
	for name, fn := range flags {
		if cmd.Flags().Lookup(name) != nil {
			_ = cmd.RegisterFlagCompletionFunc(name, fn)
		}
	}
}

// completeObjects offers catalog ids, skipping those already listed.
func (c *CLI) completeObjects(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	path, _ := cmd.Flags().GetString("properties")
	if path == "" {
		if cfg, _, err := config.Load(c.configPath); err == nil {
			path = cfg.Paths.Properties
		}
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	done := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		done = toComplete[:i+1]
	}
	listed := make(map[string]bool)
	for _, id := range strings.Split(done, ",") {
		listed[id] = true
	}
	var out []string
	for _, id := range cat.IDs() {
		if !listed[id] {
			out = append(out, done+id)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
