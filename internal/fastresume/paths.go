package fastresume

import (
	"fmt"
	"strings"

	"qbtmigrate/internal/bencode"
	"qbtmigrate/internal/logging"
)

// UpdateOptions controls how a path mutation is converted and persisted.
type UpdateOptions struct {
	// TargetOS converts separators of every written path. TargetNone skips it.
	TargetOS TargetOS
	// Backup writes the pre-mutation document to BackupPath once, before any
	// field changes.
	Backup bool
	// Save persists the document to its own path after the mutation.
	Save bool
}

// PathUpdate describes a combined save path change.
type PathUpdate struct {
	Primary string
	// Secondary is written to qBt-savePath. Nil mirrors Primary.
	Secondary *string
	// Download is written to qBt-downloadPath. Nil mirrors the secondary path,
	// but only when the record already carries the field.
	Download *string
}

// SetPath writes path under field, converting separators when opts.TargetOS
// is set.
func (r *Record) SetPath(path string, field Field, opts UpdateOptions) error {
	if !field.valid() {
		return &FieldError{Field: field}
	}
	value, err := convertFor(path, opts.TargetOS)
	if err != nil {
		return err
	}
	var p plan
	p.set(field, value)
	return r.commit(p, opts)
}

// SetPaths applies update as a single logical change. An empty primary path
// fails with ErrEmptyPath and leaves the document untouched. When a target OS
// is given every mapped_files entry is converted too.
func (r *Record) SetPaths(update PathUpdate, opts UpdateOptions) error {
	if strings.TrimSpace(update.Primary) == "" {
		return ErrEmptyPath
	}
	primary := update.Primary
	secondary := update.Secondary
	if secondary == nil {
		secondary = &primary
	}
	download := update.Download
	if download == nil && r.doc.Has(string(FieldDownloadPath)) && *secondary != "" {
		download = secondary
	}
	p, err := r.planPaths(&primary, secondary, download, opts.TargetOS, nil)
	if err != nil {
		return err
	}
	return r.commit(p, opts)
}

// plan collects field writes so a mutation is validated in full before the
// backup is taken and anything is applied.
type plan struct {
	sets []bencode.Entry
}

func (p *plan) set(field Field, value string) {
	p.sets = append(p.sets, bencode.Entry{Key: string(field), Value: bencode.String(value)})
}

func (p *plan) setValue(key string, value bencode.Value) {
	p.sets = append(p.sets, bencode.Entry{Key: key, Value: value})
}

// planPaths builds the writes for the three path fields and mapped_files. A
// nil pointer leaves that field alone. rewrite, when non-nil, is applied to
// each mapped_files entry before separator conversion.
func (r *Record) planPaths(primary, secondary, download *string, target TargetOS, rewrite func(string) string) (plan, error) {
	var p plan
	if primary != nil {
		if strings.TrimSpace(*primary) == "" {
			return plan{}, ErrEmptyPath
		}
		v, err := convertFor(*primary, target)
		if err != nil {
			return plan{}, err
		}
		p.set(FieldSavePath, v)
	}
	if secondary != nil && *secondary != "" {
		v, err := convertFor(*secondary, target)
		if err != nil {
			return plan{}, err
		}
		p.set(FieldQBtSavePath, v)
	}
	if download != nil {
		v, err := convertFor(*download, target)
		if err != nil {
			return plan{}, err
		}
		p.set(FieldDownloadPath, v)
	}

	if rewrite == nil && target == TargetNone {
		return p, nil
	}
	raw, ok := r.doc.Get(keyMappedFiles)
	if !ok {
		return p, nil
	}
	items, ok := raw.Items()
	if !ok {
		return p, nil
	}
	out := make([]bencode.Value, len(items))
	for i, item := range items {
		s, ok := item.Str()
		if !ok {
			out[i] = item
			continue
		}
		if rewrite != nil {
			s = rewrite(s)
		}
		converted, err := convertFor(s, target)
		if err != nil {
			return plan{}, err
		}
		out[i] = bencode.String(converted)
	}
	p.setValue(keyMappedFiles, bencode.List(out...))
	return p, nil
}

func (r *Record) commit(p plan, opts UpdateOptions) error {
	if opts.Backup {
		backup, err := r.Backup()
		if err != nil {
			return fmt.Errorf("backup before update: %w", err)
		}
		r.logger.Debug("fastresume backed up", logging.String("backup", backup))
	}
	for _, e := range p.sets {
		old, _ := r.doc.Get(e.Key)
		r.logger.Debug("setting field",
			logging.String("field", e.Key),
			logging.Any("old", old),
			logging.Any("new", e.Value),
		)
		r.doc.Set(e.Key, e.Value)
	}
	if opts.Save {
		return r.Save("")
	}
	return nil
}

func convertFor(path string, target TargetOS) (string, error) {
	if target == TargetNone {
		return path, nil
	}
	return ConvertSlashes(path, target)
}
