package app

import (
	"fmt"
	"log"

	"readmegen/internal/archive"
	"readmegen/internal/config"
	"readmegen/internal/runledger"
)

type gatewayStores struct {
	ledger  runledger.Store
	archive archive.Store
}

func initStores(cfg *config.Config) (*gatewayStores, error) {
	ledger, err := runledger.New(cfg.LedgerDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	if cfg.LedgerDSN != "" {
		log.Printf("run ledger: postgres")
	} else {
		log.Printf("run ledger: in-memory")
	}

	arch, err := chooseArchiveStore(cfg.Archive)
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}
	return &gatewayStores{ledger: ledger, archive: arch}, nil
}

func chooseArchiveStore(cfg config.ArchiveConfig) (archive.Store, error) {
	switch cfg.Backend {
	case "off":
		log.Printf("prompt archive: disabled")
		return nil, nil
	case "memory":
		log.Printf("prompt archive: in-memory")
		return archive.NewMemoryStore(), nil
	case "s3":
		s, err := archive.NewS3Store(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize archive s3 store: %w", err)
		}
		log.Printf("prompt archive: s3 bucket=%s endpoint=%s", cfg.S3.Bucket, cfg.S3.Endpoint)
		return archive.NewCachedStore(s, archive.DefaultCacheConfig()), nil
	default:
		s, err := archive.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		log.Printf("prompt archive: dir=%s", s.Dir)
		return s, nil
	}
}

func (s *gatewayStores) close() {
	if s == nil || s.ledger == nil {
		return
	}
	if err := s.ledger.Close(); err != nil {
		log.Printf("run ledger close: %v", err)
	}
}
