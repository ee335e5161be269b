package venv

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shinji-kodama/venv-bootstrap/internal/model"
)

// OSTypeEnv is the shell variable consulted before runtime.GOOS.
// Git Bash, MSYS2 and Cygwin set it on Windows hosts.
const OSTypeEnv = "OSTYPE"

// DetectOSFamily picks the environment layout.
//
// ostype (the OSTYPE shell variable) wins when set: msys*, cygwin* and
// win32* mean Windows, anything else means POSIX. When it is empty the
// compile target goos decides.
func DetectOSFamily(ostype, goos string) model.OSFamily {
	if ostype != "" {
		lower := strings.ToLower(ostype)
		for _, prefix := range []string{"msys", "cygwin", "win32"} {
			if strings.HasPrefix(lower, prefix) {
				return model.FamilyWindows
			}
		}
		return model.FamilyPOSIX
	}
	if goos == "windows" {
		return model.FamilyWindows
	}
	return model.FamilyPOSIX
}

// HostOSFamily is DetectOSFamily applied to the current process.
func HostOSFamily() model.OSFamily {
	return DetectOSFamily(os.Getenv(OSTypeEnv), runtime.GOOS)
}

// layout returns the bin directory name and interpreter file name.
func layout(family model.OSFamily) (binDir, python string) {
	if family == model.FamilyWindows {
		return "Scripts", "python.exe"
	}
	return "bin", "python"
}

// Activate fills in the layout-specific paths of env for family.
// It does not touch the filesystem.
func Activate(env model.Environment, family model.OSFamily) model.Environment {
	binName, pythonName := layout(family)

	env.OSFamily = family
	env.BinDir = filepath.Join(env.Dir, binName)
	env.Python = filepath.Join(env.BinDir, pythonName)
	// The activation fragment is shown relative to the project so the
	// printed command works after a plain `cd` into it. Forward slashes
	// are used on both families since the command targets a bash-like shell.
	env.ActivateScript = env.Name + "/" + binName + "/activate"
	return env
}

// ActivationCommand returns the command a user runs to reactivate env
// in an interactive shell.
func ActivationCommand(env model.Environment) string {
	return "source " + env.ActivateScript
}

// ChildEnv returns the VIRTUAL_ENV and PATH overrides that make child
// processes behave as if env had been activated. pathEnv is the current
// PATH value.
func ChildEnv(env model.Environment, pathEnv string) []string {
	path := env.BinDir
	if pathEnv != "" {
		path = env.BinDir + string(os.PathListSeparator) + pathEnv
	}
	return []string{
		"VIRTUAL_ENV=" + env.Dir,
		"PATH=" + path,
	}
}

// Executable returns the path of a tool installed inside env
// (e.g., "uv" → .venv/bin/uv, or .venv/Scripts/uv.exe on Windows).
func Executable(env model.Environment, name string) string {
	if env.OSFamily == model.FamilyWindows && filepath.Ext(name) == "" {
		name += ".exe"
	}
	return filepath.Join(env.BinDir, name)
}
