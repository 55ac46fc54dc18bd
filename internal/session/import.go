package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"miqa/internal/config"
	"miqa/internal/logging"
	"miqa/internal/manifest"
	"miqa/internal/services"
	"miqa/internal/store"
)

const maxArchiveAttempts = 100

// ImportResult counts scans imported and scans skipped.
type ImportResult struct {
	Success int
	Failed  int
}

// Import reads the configured manifest and rebuilds the session tree from
// it. A missing manifest or one that fails validation aborts before the tree
// is touched. Scans whose image directory or any listed image is missing are
// counted as failed.
func (s *Service) Import(ctx context.Context, user string) (ImportResult, error) {
	ctx = services.WithOperation(services.WithUser(ctx, user), "import")
	logger := logging.WithContext(ctx, s.logger)

	path, err := s.settings.ImportPath(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	m, err := manifest.Load(path)
	if err != nil {
		return ImportResult{}, err
	}
	logger.Info("import started",
		logging.String("manifest", path),
		logging.Int("scans", len(m.Scans)),
	)

	coll, err := s.store.EnsureCollection(ctx, s.collection, user)
	if err != nil {
		return ImportResult{}, err
	}
	previous, err := s.store.FindFolderInBase(ctx, coll.ID, s.rootFolder)
	if err != nil {
		return ImportResult{}, err
	}
	if previous != nil {
		if err := s.archive(ctx, previous); err != nil {
			return ImportResult{}, err
		}
		logger.Info("previous session tree archived", logging.String("archive", previous.Name))
	}
	root, err := s.store.CreateFolder(ctx, store.ParentCollection, coll.ID, s.rootFolder, store.FolderOptions{Creator: user})
	if err != nil {
		return ImportResult{}, err
	}
	if _, err := s.store.CreateItem(ctx, root.ID, ManifestItemName, store.ItemOptions{
		Creator:     user,
		Description: string(m.Raw),
	}); err != nil {
		return ImportResult{}, err
	}

	var result ImportResult
	for _, scan := range m.Scans {
		ok, err := s.importScan(ctx, m, scan, root, previous, user)
		if err != nil {
			return result, err
		}
		if ok {
			result.Success++
		} else {
			result.Failed++
		}
	}

	if _, err := s.store.AddSites(ctx, m.SiteIDs(), user); err != nil {
		return result, err
	}
	logger.Info("import finished",
		logging.Int("success", result.Success),
		logging.Int("failed", result.Failed),
	)
	return result, nil
}

// archive renames folder to "<root>_<timestamp>", adding a counter when an
// archive of the same second already exists.
func (s *Service) archive(ctx context.Context, folder *store.Folder) error {
	base := s.rootFolder + "_" + s.now().Format(archiveLayout)
	for n := 0; n < maxArchiveAttempts; n++ {
		folder.Name = base
		if n > 0 {
			folder.Name = fmt.Sprintf("%s (%d)", base, n)
		}
		err := s.store.SaveFolder(ctx, folder)
		if errors.Is(err, store.ErrNameConflict) {
			continue
		}
		return err
	}
	return fmt.Errorf("archive session tree: %w", store.ErrNameConflict)
}

// importScan builds the experiment and scan folders for one scan and imports
// its images. It reports false when the scan is skipped; a skipped scan leaves
// no nodes behind.
func (s *Service) importScan(ctx context.Context, m *manifest.Manifest, scan manifest.Scan, root, previous *store.Folder, user string) (bool, error) {
	experimentName := manifest.FolderName(scan.ExperimentID)
	scanKey := scan.Key()
	logger := logging.WithContext(ctx, s.logger).With(logging.Scan(scan.ExperimentID, scanKey))

	dir, err := config.ExpandPath(m.ImageDir(scan))
	if err != nil {
		return false, fmt.Errorf("expand image dir: %w", err)
	}
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		logging.WarnWithContext(logger, "scan image directory missing", "import_scan_missing",
			logging.String("image_dir", dir),
			logging.String(logging.FieldErrorHint, "check data_root and the scan path in the manifest"),
			logging.String(logging.FieldImpact, "scan counted as failed"),
		)
		return false, nil
	}
	for _, image := range scan.Images {
		info, statErr := os.Stat(filepath.Join(dir, image))
		if statErr == nil && info.Mode().IsRegular() {
			continue
		}
		logging.WarnWithContext(logger, "scan image unreadable", "import_image_missing",
			logging.String("image", image),
			logging.String("image_dir", dir),
			logging.String(logging.FieldErrorHint, "check the images listed for the scan"),
			logging.String(logging.FieldImpact, "scan counted as failed"),
		)
		return false, nil
	}

	expFolder, err := s.store.CreateFolder(ctx, store.ParentFolder, root.ID, experimentName,
		store.FolderOptions{Creator: user, ReuseExisting: true})
	if err != nil {
		return false, err
	}
	scanFolder, err := s.store.CreateFolder(ctx, store.ParentFolder, expFolder.ID, scanKey,
		store.FolderOptions{Creator: user, ReuseExisting: true})
	if err != nil {
		return false, err
	}

	meta := map[string]any{
		MetaExperimentID:   scan.ExperimentID,
		MetaExperimentNote: m.ExperimentNote(scan.ExperimentID),
		MetaSite:           scan.SiteID,
		MetaScanID:         scan.ID,
		MetaScanType:       scan.Type,
	}
	if previous != nil {
		prior, err := s.findScan(ctx, previous, experimentName, scanKey)
		if err != nil {
			return false, err
		}
		if carryAnnotations(prior) {
			meta[MetaNote] = nullable(prior.MetaString(MetaNote))
			meta[MetaRating] = nullable(prior.MetaString(MetaRating))
			logger.Debug("annotations carried forward",
				logging.String("rating", prior.MetaString(MetaRating)))
		}
	}
	if _, err := s.store.SetFolderMetadata(ctx, scanFolder, meta); err != nil {
		return false, err
	}

	for _, image := range scan.Images {
		item, err := s.store.CreateItem(ctx, scanFolder.ID, image, store.ItemOptions{Creator: user, ReuseExisting: true})
		if err != nil {
			return false, err
		}
		if _, err := s.assets.ImportFile(ctx, item, filepath.Join(dir, image), image); err != nil {
			if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrValidation) {
				logging.WarnWithContext(logger, "scan image unreadable", "import_image_missing",
					logging.String("image", image),
					logging.Error(err),
					logging.String(logging.FieldImpact, "scan counted as failed"),
				)
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

// carryAnnotations reports whether a prior scan folder has a note or rating
// worth keeping.
func carryAnnotations(prior *store.Folder) bool {
	if prior == nil {
		return false
	}
	return prior.MetaString(MetaNote) != "" || prior.MetaString(MetaRating) != ""
}

// nullable maps "" to nil so SetFolderMetadata drops the key.
func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
