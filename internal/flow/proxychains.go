package flow

import (
	"github.com/nao1215/anonsetup/internal/config"
	"github.com/nao1215/anonsetup/internal/transaction"
)

// chainModePattern matches any active chain-mode flag line. proxychains4
// honors whichever flag appears, so conflicting flags must be cleared
// before the configured one is pinned.
const chainModePattern = `\s*(?:dynamic_chain|strict_chain|random_chain|round_robin_chain)\s*`

// Proxychains builds the proxychains flow: install proxychains4, enforce
// exactly one chain mode, resolve DNS through the chain, and replace the
// stock socks4 entry with the local Tor SOCKS5 proxy.
func Proxychains(cfg *config.Config, deps Deps) ([]transaction.Step, error) {
	p := cfg.Proxychains

	steps := []transaction.Step{
		NewInstallPackagesStep(deps.Packages, p.Packages),
		NewRemoveMatchingStep("clear-chain-modes", deps.Editor, p.ConfigPath, chainModePattern),
		NewEnsureLineStep("set-"+p.ChainMode, deps.Editor, p.ConfigPath, p.ChainMode),
		NewUncommentStep(deps.Editor, p.ConfigPath, "proxy_dns"),
		NewRemoveMatchingStep("remove-socks4", deps.Editor, p.ConfigPath, `\s*socks4\s+.*`),
		NewEnsureLineStep("add-tor-proxy", deps.Editor, p.ConfigPath, p.ProxyLine),
	}

	return steps, nil
}
