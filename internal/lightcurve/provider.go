package lightcurve

import (
	"errors"
	"path/filepath"

	"github.com/pgris/sims-maf-contrib/internal/fsutil"
)

// DefaultTemplateName is the faint, fast-evolving TDE template at z=0.1,
// relative to a data directory.
const DefaultTemplateName = "tde/TDEfaintfast_z0.1.dat"

// TemplateProvider resolves which template file to load.
type TemplateProvider interface {
	TemplatePath() (string, error)
}

// FileProvider names an explicit template file.
type FileProvider struct {
	Path string
}

// TemplatePath returns the configured path.
func (p FileProvider) TemplatePath() (string, error) {
	if p.Path == "" {
		return "", errors.New("template path is empty")
	}
	return p.Path, nil
}

// DataDirProvider resolves a template inside a data directory. Name defaults
// to DefaultTemplateName.
type DataDirProvider struct {
	DataDir string
	Name    string
}

// TemplatePath joins the data directory and template name.
func (p DataDirProvider) TemplatePath() (string, error) {
	if p.DataDir == "" {
		return "", errors.New("data directory is empty")
	}
	name := p.Name
	if name == "" {
		name = DefaultTemplateName
	}
	return filepath.Join(p.DataDir, filepath.FromSlash(name)), nil
}

// Load resolves the provider's path and loads the template from fsys.
func Load(fsys fsutil.FileSystem, p TemplateProvider) (*Template, error) {
	path, err := p.TemplatePath()
	if err != nil {
		return nil, err
	}
	return LoadTemplate(fsys, path)
}
