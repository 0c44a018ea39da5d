package drapto

import (
	"context"

	draptolib "github.com/five82/drapto"
)

// Library implements Client using the Drapto Go library directly.
type Library struct{}

// NewLibrary constructs a Library client.
func NewLibrary() *Library {
	return &Library{}
}

// Encode encodes a video file in-process.
func (l *Library) Encode(ctx context.Context, inputPath, outputDir string, progress func(ProgressUpdate)) (string, error) {
	outputPath, err := expectedOutput(inputPath, outputDir)
	if err != nil {
		return "", err
	}

	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return "", err
	}

	var rep draptolib.Reporter
	if progress != nil {
		rep = newReporter(progress)
	}
	if _, err := encoder.EncodeWithReporter(ctx, inputPath, outputDir, rep); err != nil {
		return "", err
	}
	return outputPath, nil
}

var _ Client = (*Library)(nil)
