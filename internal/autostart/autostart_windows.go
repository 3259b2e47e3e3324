//go:build windows

package autostart

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

func itemPath(name string) (string, error) {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		return "", fmt.Errorf("APPDATA is not set")
	}
	return filepath.Join(appData, `Microsoft\Windows\Start Menu\Programs\Startup`, name+".lnk"), nil
}

// enable writes a Startup folder shortcut through the WScript.Shell COM object.
func enable(e Entry) error {
	linkPath, err := itemPath(e.Name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(linkPath), 0o755); err != nil {
		return err
	}

	if err := ole.CoInitialize(0); err != nil {
		return fmt.Errorf("CoInitialize failed: %w", err)
	}
	defer ole.CoUninitialize()

	shellObj, err := oleutil.CreateObject("WScript.Shell")
	if err != nil {
		return fmt.Errorf("CreateObject(WScript.Shell) failed: %w", err)
	}
	defer shellObj.Release()

	shell, err := shellObj.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("QueryInterface IDispatch failed: %w", err)
	}
	defer shell.Release()

	v, err := oleutil.CallMethod(shell, "CreateShortcut", linkPath)
	if err != nil {
		return fmt.Errorf("CreateShortcut failed: %w", err)
	}
	sc := v.ToIDispatch()
	defer sc.Release()

	if _, err := oleutil.PutProperty(sc, "TargetPath", e.Exe); err != nil {
		return fmt.Errorf("set TargetPath: %w", err)
	}
	if len(e.Args) > 0 {
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = quoteArg(a)
		}
		if _, err := oleutil.PutProperty(sc, "Arguments", strings.Join(args, " ")); err != nil {
			return fmt.Errorf("set Arguments: %w", err)
		}
	}
	_, _ = oleutil.PutProperty(sc, "Description", e.Name)
	_, _ = oleutil.PutProperty(sc, "IconLocation", e.Exe)
	_, _ = oleutil.PutProperty(sc, "WorkingDirectory", filepath.Dir(e.Exe))

	if _, err := oleutil.CallMethod(sc, "Save"); err != nil {
		return fmt.Errorf("save shortcut: %w", err)
	}
	return nil
}
