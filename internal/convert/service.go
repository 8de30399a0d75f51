package convert

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docconvert/internal/domain"
	"docconvert/internal/quota"
	"docconvert/internal/storage"
)

// Upload is one candidate file as parsed from the request body. It lives
// only for the duration of validation and persistence.
type Upload struct {
	Filename    string
	ContentType string
	File        io.ReadSeeker
}

// ResultFile points at a verified conversion artifact. The caller owns
// the path: it streams the file out and removes it afterwards.
type ResultFile struct {
	Path         string
	DownloadName string
	ContentType  string
}

// Service drives a conversion job from upload to terminal state: quota
// reservation, validation, persistence, bounded execution, output
// verification and guaranteed input cleanup.
type Service struct {
	registry *Registry
	work     *storage.WorkDir
	ledger   quota.Ledger
	timeout  time.Duration
	maxBytes int64
	logger   zerolog.Logger
}

// NewService wires the conversion job lifecycle.
func NewService(registry *Registry, work *storage.WorkDir, ledger quota.Ledger, timeout time.Duration, maxBytes int64, logger zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		work:     work,
		ledger:   ledger,
		timeout:  timeout,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Convert runs one conversion job for the session. On success the caller
// receives the output file and is responsible for deleting it once the
// response has been sent. The persisted input file is deleted here on
// every path, success or not.
func (s *Service) Convert(ctx context.Context, sessionKey, modeID string, up Upload) (*ResultFile, error) {
	job := domain.Job{
		ID:           uuid.NewString(),
		SessionKey:   sessionKey,
		ModeID:       modeID,
		OriginalName: up.Filename,
		State:        domain.JobReceived,
		StartedAt:    time.Now(),
	}
	log := s.logger.With().Str("job", job.ID).Str("mode", modeID).Logger()
	defer func() {
		log.Debug().Str("state", string(job.State)).Msg("job finished")
	}()

	if err := s.ledger.Reserve(ctx, sessionKey); err != nil {
		job.State = domain.JobQuotaBlocked
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			if err := s.ledger.Cancel(ctx, sessionKey); err != nil {
				s.logger.Error().Err(err).Str("session", sessionKey).Msg("quota cancel failed")
			}
		}
	}()

	mode, ok := s.registry.Resolve(modeID)
	if !ok {
		job.State = domain.JobRejected
		return nil, domain.ErrInvalidMode
	}

	if err := Validate(up.File, up.Filename, up.ContentType, mode.InputExts, s.maxBytes); err != nil {
		job.State = domain.JobRejected
		return nil, err
	}
	job.State = domain.JobValidated

	inputPath, err := s.work.SaveUpload(job.ID, up.Filename, up.File)
	if err != nil {
		job.State = domain.JobFailed
		log.Error().Err(err).Msg("persist upload failed")
		return nil, domain.ErrConversionFailed
	}
	job.InputPath = inputPath
	job.OutputPath = s.work.OutputPath(inputPath, mode.OutputExt)
	job.State = domain.JobPersisted

	// The input file goes away no matter how the job ends.
	defer func() {
		if err := s.work.Remove(job.InputPath); err != nil {
			log.Warn().Err(err).Msg("input cleanup failed")
		}
	}()

	job.State = domain.JobConverting
	res := RunWithDeadline(ctx, mode.Routine, job.InputPath, job.OutputPath, s.timeout)
	switch res.Outcome {
	case OutcomeTimedOut:
		job.State = domain.JobTimedOut
		log.Warn().Dur("deadline", s.timeout).Msg("conversion timed out")
		return nil, domain.ErrConversionTimeout
	case OutcomeFailed:
		job.State = domain.JobFailed
		// Full detail stays server-side; the caller sees a generic error.
		log.Error().Err(res.Err).Dur("elapsed", res.Elapsed).Msg("conversion failed")
		return nil, domain.ErrConversionFailed
	}

	info, err := os.Stat(job.OutputPath)
	if err != nil || info.Size() == 0 {
		job.State = domain.JobNoOutput
		log.Error().Err(err).Msg("converter reported success but produced no output")
		if err == nil {
			// Zero-byte artifact: do not leave it for the sweeper.
			if rmErr := s.work.Remove(job.OutputPath); rmErr != nil {
				log.Warn().Err(rmErr).Msg("output cleanup failed")
			}
		}
		return nil, domain.ErrOutputMissing
	}
	job.State = domain.JobVerified

	if err := s.ledger.Commit(ctx, sessionKey); err != nil {
		log.Error().Err(err).Msg("quota commit failed")
	} else {
		committed = true
	}
	job.State = domain.JobCompleted
	log.Info().Dur("elapsed", res.Elapsed).Int64("bytes", info.Size()).Msg("conversion completed")

	return &ResultFile{
		Path:         job.OutputPath,
		DownloadName: DownloadName(up.Filename, mode.OutputExt),
		ContentType:  outputContentType(mode.OutputExt),
	}, nil
}

// DiscardOutput removes a delivered output file, tolerating files the
// sweeper already reclaimed.
func (s *Service) DiscardOutput(path string) {
	if err := s.work.Remove(path); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("output cleanup failed")
	}
}

// DownloadName derives the human-friendly attachment name
// {originalStem}_converted{ext} from the uploaded filename.
func DownloadName(originalName, ext string) string {
	base := storage.SanitizeName(originalName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = "document"
	}
	return stem + "_converted" + ext
}

func outputContentType(ext string) string {
	if types := ContentTypes[ext]; len(types) > 0 {
		return types[0]
	}
	return "application/octet-stream"
}
