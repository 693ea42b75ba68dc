package flow

import (
	"errors"
	"path/filepath"

	"github.com/nao1215/anonsetup/internal/config"
	"github.com/nao1215/anonsetup/internal/transaction"
)

// ErrNoConfigFile is returned when the vpn flow is built without a
// candidate WireGuard file.
var ErrNoConfigFile = errors.New("vpn flow requires a WireGuard config file")

// VPN builds the WireGuard flow: validate the user-supplied interface
// file, install wireguard-tools, copy the file to the interface path
// with a private mode, and enable the wg-quick unit.
//
// Validation is the first step, so a rejected file aborts the
// transaction before any mutation step runs.
func VPN(cfg *config.Config, configFile string, deps Deps) ([]transaction.Step, error) {
	if configFile == "" {
		return nil, ErrNoConfigFile
	}

	v := cfg.VPN
	dest := filepath.Join(v.Dir, v.Interface+".conf")

	steps := []transaction.Step{
		NewValidateWireGuardStep(configFile, deps.Logger),
		NewInstallPackagesStep(deps.Packages, v.Packages),
		NewInstallFileStep(configFile, dest, 0o600),
		NewDaemonReloadStep(deps.Services),
		NewEnableServiceStep(deps.Services, "wg-quick@"+v.Interface),
	}

	return steps, nil
}
