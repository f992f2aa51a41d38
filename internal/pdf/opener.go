package pdf

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ValidViewers lists the accepted pdf_viewer values.
var ValidViewers = []string{"system", "skim", "preview", "zathura", "evince", "okular"}

// Opener locates a scanned paper by report filename and opens it in a
// viewer, so flagged papers can be checked by eye.
type Opener struct {
	folder string
	viewer string
}

// NewOpener creates an opener for papers under folder. An empty viewer
// uses the platform default.
func NewOpener(folder, viewer string) *Opener {
	if viewer == "" {
		viewer = "system"
	}
	return &Opener{folder: folder, viewer: viewer}
}

// ValidateViewer checks that the viewer value is known.
func ValidateViewer(viewer string) error {
	if viewer == "" {
		return nil
	}
	for _, v := range ValidViewers {
		if viewer == v {
			return nil
		}
	}
	return fmt.Errorf("invalid pdf_viewer: %s (valid: %v)", viewer, ValidViewers)
}

// ResolvePath maps a report filename to a file in the folder. Absolute
// paths are used as given.
func (o *Opener) ResolvePath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("no PDF specified")
	}

	fullPath := name
	if !filepath.IsAbs(name) {
		if o.folder == "" {
			return "", fmt.Errorf("pdf_folder not configured")
		}
		fullPath = filepath.Join(o.folder, name)
	}

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("PDF not found: %s", fullPath)
		}
		return "", fmt.Errorf("checking PDF: %w", err)
	}
	return fullPath, nil
}

// Open starts the viewer on fullPath without waiting for it to exit.
func (o *Opener) Open(fullPath string) error {
	cmd, err := o.command(runtime.GOOS, fullPath)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// command builds the viewer invocation for goos.
func (o *Opener) command(goos, path string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		switch o.viewer {
		case "skim":
			return exec.Command("open", "-a", "Skim", path), nil
		case "preview":
			return exec.Command("open", "-a", "Preview", path), nil
		default:
			return exec.Command("open", path), nil
		}
	case "linux":
		switch o.viewer {
		case "zathura", "evince", "okular":
			return exec.Command(o.viewer, path), nil
		default:
			return exec.Command("xdg-open", path), nil
		}
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
