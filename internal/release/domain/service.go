package domain

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/paritytech/push-release/internal/auth"
	"github.com/paritytech/push-release/internal/chains"
	"github.com/paritytech/push-release/internal/metadata"
	"github.com/paritytech/push-release/internal/observability/metrics"
	"github.com/paritytech/push-release/internal/validation"
)

// Config is the read-only policy of the pipelines.
type Config struct {
	EnabledTracks      []string
	SupportedPlatforms []string
	AssetBaseURL       string
}

type service struct {
	gate      *auth.Gate
	source    metadata.Source
	ledger    chains.Ledger
	network   *chains.NetworkResolver
	tracks    *TrackResolver
	platforms []string
	assetBase string
	logger    *slog.Logger
}

// NewService creates the release service. Nothing it holds is mutated after
// construction, so one instance serves concurrent requests.
func NewService(cfg Config, gate *auth.Gate, source metadata.Source, ledger chains.Ledger, logger *slog.Logger) *service {
	return &service{
		gate:      gate,
		source:    source,
		ledger:    ledger,
		network:   chains.NewNetworkResolver(ledger),
		tracks:    NewTrackResolver(cfg.EnabledTracks),
		platforms: append([]string(nil), cfg.SupportedPlatforms...),
		assetBase: strings.TrimRight(cfg.AssetBaseURL, "/"),
		logger:    logger,
	}
}

// PushRelease registers the release at req.Commit with the operations contract.
func (s *service) PushRelease(ctx context.Context, req ReleaseRequest) (*ReleaseResult, error) {
	if err := s.gate.Check(req.Secret); err != nil {
		return nil, Unauthorized()
	}
	params := validation.ReleaseParams{Tag: req.Tag, Commit: req.Commit, Secret: req.Secret}
	if err := params.Validate(); err != nil {
		return nil, fieldError(err)
	}

	runID := uuid.NewString()
	log := s.logger.With("run_id", runID, "flow", "release", "tag", req.Tag, "commit", req.Commit)

	md, err := s.readMetadata(ctx, log, req.Commit)
	if err != nil {
		return nil, err
	}

	track, err := s.resolveTrack(log, md)
	if err != nil {
		return nil, err
	}

	network, err := s.network.Resolve(ctx)
	if err != nil {
		return nil, Upstream(err, "Unable to determine network")
	}
	forkBlock, ok := md.ForkBlock(network)
	if !ok {
		log.Warn("no fork block for network, using 0", "network", network)
	}

	semver, err := md.Version.Encode()
	if err != nil {
		return nil, Upstream(err, "Unable to encode version %s", md.Version)
	}
	log.Debug("version encoded", "version", md.Version.String(), "semver", semver)

	registry, err := s.registry(ctx)
	if err != nil {
		return nil, err
	}
	operations, err := s.lookup(ctx, log, registry, chains.OperationsName)
	if err != nil {
		return nil, err
	}

	release := chains.Release{
		Commit:    req.Commit,
		ForkBlock: forkBlock,
		Track:     track.Code,
		Semver:    semver,
		Critical:  md.Critical,
	}
	log.Info("registering release",
		"release", chains.PaddedCommit(req.Commit),
		"fork_block", forkBlock,
		"track", track.Code,
		"semver", semver,
		"critical", md.Critical,
	)
	tx, err := s.ledger.AddRelease(ctx, operations, release)
	recordTransaction("addRelease", err)
	if err != nil {
		return nil, Upstream(err, "Unable to register release")
	}
	log.Info("transaction sent", "method", "addRelease", "tx", tx.Hex())

	return &ReleaseResult{
		RunID:     runID,
		Commit:    req.Commit,
		Track:     track,
		Network:   network,
		ForkBlock: forkBlock,
		Semver:    semver,
		Critical:  md.Critical,
		TxHash:    tx,
	}, nil
}

// PushBuild publishes the download hint of a platform binary and binds its
// checksum to the release at req.Commit.
func (s *service) PushBuild(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	if err := s.gate.Check(req.Secret); err != nil {
		return nil, Unauthorized()
	}
	params := validation.BuildParams{
		Tag:      req.Tag,
		Platform: req.Platform,
		Commit:   req.Commit,
		Filename: req.Filename,
		SHA3:     req.SHA3,
		Secret:   req.Secret,
	}
	if err := params.Validate(s.platforms); err != nil {
		return nil, fieldError(err)
	}

	runID := uuid.NewString()
	log := s.logger.With("run_id", runID, "flow", "build", "tag", req.Tag, "platform", req.Platform, "commit", req.Commit)
	assetURL := s.AssetURL(req.Tag, req.Platform, req.Filename)

	md, err := s.readMetadata(ctx, log, req.Commit)
	if err != nil {
		return nil, err
	}
	track, err := s.resolveTrack(log, md)
	if err != nil {
		return nil, err
	}

	registry, err := s.registry(ctx)
	if err != nil {
		return nil, err
	}

	githubhint, err := s.lookup(ctx, log, registry, chains.GithubHintName)
	if err != nil {
		return nil, err
	}
	log.Info("registering hint", "sha3", req.SHA3, "url", assetURL)
	hintTx, err := s.ledger.HintURL(ctx, githubhint, chains.Hint{SHA3: req.SHA3, URL: assetURL})
	recordTransaction("hintURL", err)
	if err != nil {
		return nil, Upstream(err, "Unable to register download hint")
	}
	log.Info("transaction sent", "method", "hintURL", "tx", hintTx.Hex())

	operations, err := s.lookup(ctx, log, registry, chains.OperationsName)
	if err != nil {
		return nil, err
	}
	log.Info("registering platform binary", "sha3", req.SHA3)
	checksumTx, err := s.ledger.AddChecksum(ctx, operations, chains.Checksum{
		Commit:   req.Commit,
		Platform: req.Platform,
		SHA3:     req.SHA3,
	})
	recordTransaction("addChecksum", err)
	if err != nil {
		return nil, Upstream(err, "Unable to register checksum")
	}
	log.Info("transaction sent", "method", "addChecksum", "tx", checksumTx.Hex())

	return &BuildResult{
		RunID:      runID,
		Platform:   req.Platform,
		Commit:     req.Commit,
		SHA3:       req.SHA3,
		Tag:        req.Tag,
		Filename:   req.Filename,
		AssetURL:   assetURL,
		Track:      track,
		HintTx:     hintTx,
		ChecksumTx: checksumTx,
	}, nil
}

// AssetURL composes the download location of a binary.
func (s *service) AssetURL(tag, platform, filename string) string {
	return s.assetBase + "/" + tag + "/" + platform + "/" + filename
}

func (s *service) readMetadata(ctx context.Context, log *slog.Logger, commit string) (*metadata.ReleaseMetadata, error) {
	md, err := s.source.Read(ctx, commit)
	if err != nil {
		metrics.MetadataRead("error")
		return nil, Upstream(err, "Unable to read release metadata")
	}
	metrics.MetadataRead("ok")
	for _, w := range md.Warnings {
		log.Warn(w)
	}
	return md, nil
}

func (s *service) resolveTrack(log *slog.Logger, md *metadata.ReleaseMetadata) (Track, error) {
	track := s.tracks.Resolve(md.Track)
	log.Info("track resolved",
		"raw_track", track.Raw,
		"track", track.Label,
		"code", track.Code,
		"enabled", track.Enabled,
	)
	if !track.Enabled {
		return track, Declined("Track %s is not enabled", track.Label)
	}
	return track, nil
}

func (s *service) registry(ctx context.Context) (common.Address, error) {
	addr, err := s.ledger.RegistryAddress(ctx)
	if err != nil {
		return common.Address{}, Upstream(err, "Unable to resolve registry")
	}
	return addr, nil
}

func (s *service) lookup(ctx context.Context, log *slog.Logger, registry common.Address, name string) (common.Address, error) {
	addr, err := s.ledger.Lookup(ctx, registry, name)
	if err != nil {
		return common.Address{}, Upstream(err, "Unable to resolve %s", name)
	}
	log.Debug("contract resolved", "registry", registry.Hex(), "name", name, "address", addr.Hex())
	return addr, nil
}

func fieldError(err error) *Error {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		if fe.Advisory {
			return Declined("%s", fe.Error())
		}
		return Invalid("%s", fe.Error())
	}
	return Invalid("%s", err.Error())
}

func recordTransaction(method string, err error) {
	status := "sent"
	if err != nil {
		status = "error"
	}
	metrics.LedgerTransaction(method, status)
}
