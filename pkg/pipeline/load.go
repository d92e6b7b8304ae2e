package pipeline

import (
	"context"
	"encoding/json"
	"os"

	"github.com/matzehuels/stackchart/pkg/cache"
	"github.com/matzehuels/stackchart/pkg/dataset"
	"github.com/matzehuels/stackchart/pkg/encoding"
	"github.com/matzehuels/stackchart/pkg/errors"
)

// Load returns the records named by opts together with a content hash
// used in cache keys.
func Load(ctx context.Context, opts Options) ([]encoding.Record, string, error) {
	if opts.Records != nil {
		data, err := json.Marshal(opts.Records)
		if err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "encode inline records")
		}
		return opts.Records, cache.Hash(data), nil
	}

	if err := errors.ValidateDataPath(opts.DataPath); err != nil {
		return nil, "", err
	}
	format, err := dataset.DetectFormat(opts.DataPath, dataset.Format(opts.DataFormat))
	if err != nil {
		return nil, "", err
	}
	raw, err := os.ReadFile(opts.DataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errors.Wrap(errors.ErrCodeFileNotFound, err, "data file %s", opts.DataPath)
		}
		return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", opts.DataPath)
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	records, err := dataset.Decode(raw, format, opts.Sheet)
	if err != nil {
		return nil, "", err
	}
	return records, cache.Hash(raw), nil
}

// source describes where opts reads records from, for logs and hooks.
func source(opts Options) string {
	if opts.Records != nil {
		return "inline"
	}
	return opts.DataPath
}
