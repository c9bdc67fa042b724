package publish

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/openvfx/gopublish/pkg/anatomy"
	"github.com/openvfx/gopublish/pkg/db/models"
	"github.com/openvfx/gopublish/pkg/db/operations"
	"github.com/openvfx/gopublish/pkg/db/store"
	"github.com/openvfx/gopublish/pkg/log"
	"github.com/openvfx/gopublish/pkg/traits"
	"github.com/openvfx/gopublish/pkg/transfer"
	"gorm.io/gorm"
)

// ErrNothingToIntegrate is returned when an instance has no persistent
// representations to integrate.
var ErrNothingToIntegrate = errors.New("instance has no representations to integrate")

// Config holds integration behaviour settings.
type Config struct {
	TransferMode      transfer.Mode
	TransferWorkers   int
	AllowReplacements bool
	Template          string
}

// Integrator turns validated instances into stored entities and files
// at their publish locations. Entity writes are queued in an
// operations session and committed only after every file transfer
// succeeded, so a failed publish leaves no half-written version
// behind.
type Integrator struct {
	log     log.LoggerService
	store   store.EntityStore
	anatomy *anatomy.Anatomy
	cfg     Config
}

// Result reports what one instance integration produced.
type Result struct {
	Instance        string
	FolderID        string
	ProductID       string
	VersionID       string
	Version         int
	Representations []string
	Transferred     []string
}

func NewIntegrator(
	logger log.LoggerService,
	entityStore store.EntityStore,
	projectAnatomy *anatomy.Anatomy,
	cfg Config,
) *Integrator {
	if cfg.Template == "" {
		cfg.Template = "default"
	}
	if cfg.TransferMode == "" {
		cfg.TransferMode = transfer.ModeCopy
	}
	return &Integrator{
		log:     logger.Named("integrate"),
		store:   entityStore,
		anatomy: projectAnatomy,
		cfg:     cfg,
	}
}

// IntegrateContext integrates every eligible instance of the context.
// Farm instances, instances with integration switched off and
// instances without persistent representations are skipped with a log
// message. The first failing instance aborts the run.
func (ig *Integrator) IntegrateContext(ctx context.Context, pctx *Context) ([]*Result, error) {
	var results []*Result
	for _, instance := range pctx.Instances {
		if instance.Farm {
			ig.log.Info("Skipping %s, marked for farm processing", instance.Name)
			continue
		}
		if !instance.Integrate {
			ig.log.Info("Skipping %s, integration disabled", instance.Name)
			continue
		}
		if len(instance.ActiveRepresentations()) == 0 {
			ig.log.Info("Skipping %s, no persistent representations", instance.Name)
			continue
		}

		result, err := ig.IntegrateInstance(ctx, pctx, instance)
		if err != nil {
			return results, fmt.Errorf("instance %s: %w", instance.Name, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// IntegrateInstance publishes a single instance: validates its
// representations, prepares folder, product and version entities,
// transfers files to their publish locations and finally commits the
// queued entity writes.
func (ig *Integrator) IntegrateInstance(
	ctx context.Context, pctx *Context, instance *Instance,
) (*Result, error) {
	active := instance.ActiveRepresentations()
	if len(active) == 0 {
		return nil, ErrNothingToIntegrate
	}

	if err := instance.Validate(); err != nil {
		return nil, err
	}

	session := operations.NewSession(ig.store)

	folder, err := ig.prepareFolder(ctx, instance)
	if err != nil {
		return nil, err
	}
	product, err := ig.prepareProduct(ctx, session, folder, instance)
	if err != nil {
		return nil, err
	}
	version, err := ig.prepareVersion(ctx, session, pctx, product, instance)
	if err != nil {
		return nil, err
	}

	transaction := transfer.NewTransaction(ig.log, transfer.Options{
		AllowReplacements: ig.cfg.AllowReplacements,
		Workers:           ig.cfg.TransferWorkers,
	})

	result := &Result{
		Instance:  instance.Name,
		FolderID:  folder.ID,
		ProductID: product.ID,
		VersionID: version.ID,
		Version:   version.Version,
	}

	for _, rep := range active {
		published, err := ig.planRepresentation(
			pctx, instance, folder, product, version, rep, transaction)
		if err != nil {
			return nil, fmt.Errorf("representation %s: %w", rep.Name(), err)
		}

		model := &models.Representation{
			ID:        published.ID(),
			VersionID: version.ID,
			Name:      published.Name(),
			Traits:    published.TraitData(),
		}
		session.CreateRepresentation(model)
		result.Representations = append(result.Representations, model.ID)
	}

	ig.log.Info("Transferring %d files for %s", transaction.Len(), instance.Name)
	if err := transaction.Process(ctx); err != nil {
		if rollbackErr := transaction.Rollback(); rollbackErr != nil {
			ig.log.Error("Rollback left residue: %v", rollbackErr)
		}
		return nil, fmt.Errorf("file transfer failed: %w", err)
	}

	if err := session.Commit(ctx); err != nil {
		if rollbackErr := transaction.Rollback(); rollbackErr != nil {
			ig.log.Error("Rollback left residue: %v", rollbackErr)
		}
		return nil, fmt.Errorf("entity commit failed: %w", err)
	}

	transaction.Finalize()
	result.Transferred = transaction.Transferred()

	ig.log.Info("Integrated %s as %s version %d",
		instance.Name, product.Name, version.Version)
	return result, nil
}

// prepareFolder resolves the folder an instance publishes into.
// Folders are looked up, never created here; EnsureFolders is the
// bootstrap path for missing ones.
func (ig *Integrator) prepareFolder(
	ctx context.Context, instance *Instance,
) (*models.Folder, error) {
	folder, err := ig.store.GetFolderByPath(ctx, instance.FolderPath)
	if err == nil {
		return folder, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("folder %s not found", instance.FolderPath)
	}
	return nil, fmt.Errorf("failed to query folder: %w", err)
}

func (ig *Integrator) prepareProduct(
	ctx context.Context,
	session *operations.Session,
	folder *models.Folder,
	instance *Instance,
) (*models.Product, error) {
	product, err := ig.store.GetProductByName(ctx, folder.ID, instance.ProductName)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to query product: %w", err)
		}
		product = &models.Product{
			ID:          uuid.NewString(),
			FolderID:    folder.ID,
			Name:        instance.ProductName,
			ProductType: instance.ProductType,
			Families:    mergeFamilies(nil, instance),
		}
		session.CreateProduct(product)
		return product, nil
	}

	if product.ProductType != instance.ProductType {
		return nil, fmt.Errorf(
			"product %s already exists with type %s, cannot publish as %s",
			product.Name, product.ProductType, instance.ProductType)
	}

	merged := mergeFamilies(product.Families, instance)
	if len(merged) != len(product.Families) {
		product.Families = merged
		session.UpdateProduct(product)
	}
	return product, nil
}

func (ig *Integrator) prepareVersion(
	ctx context.Context,
	session *operations.Session,
	pctx *Context,
	product *models.Product,
	instance *Instance,
) (*models.Version, error) {
	number := 1
	if instance.Version != nil {
		number = *instance.Version
		if _, err := ig.store.GetVersionByNumber(ctx, product.ID, number); err == nil {
			return nil, fmt.Errorf(
				"version %d of product %s already exists", number, product.Name)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to query version: %w", err)
		}
	} else {
		latest, err := ig.store.GetLatestVersion(ctx, product.ID)
		if err == nil {
			number = latest.Version + 1
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to query latest version: %w", err)
		}
	}

	attributes := map[string]any{
		"comment":  pctx.Comment,
		"machine":  pctx.Machine,
		"families": mergeFamilies(nil, instance),
	}
	if instance.FPS > 0 {
		attributes["fps"] = instance.FPS
	}
	if instance.Source != "" {
		attributes["source"] = instance.Source
	}

	version := &models.Version{
		ID:         uuid.NewString(),
		ProductID:  product.ID,
		Version:    number,
		Author:     pctx.User,
		Attributes: attributes,
	}
	session.CreateVersion(version)
	return version, nil
}

// planRepresentation queues the file transfers of one representation
// and returns the published counterpart: the same traits with file
// locations rewritten to their destinations, plus the resolved
// template path.
func (ig *Integrator) planRepresentation(
	pctx *Context,
	instance *Instance,
	folder *models.Folder,
	product *models.Product,
	version *models.Version,
	rep *traits.Representation,
	transaction *transfer.Transaction,
) (*traits.Representation, error) {
	template, err := ig.anatomy.Template(ig.cfg.Template)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"root":    ig.anatomy.Roots(),
		"project": pctx.Project,
		"folder":  folder.Name,
		"product": product.Name,
		"version": version.Version,
	}
	if instance.Task != "" {
		data["task"] = instance.Task
	}
	if variant, err := traits.GetTrait[traits.Variant](rep); err == nil {
		data["output"] = variant.Variant
	}
	if managed, err := traits.GetTrait[traits.ColorManaged](rep); err == nil {
		data["colorspace"] = managed.ColorSpace
	}

	published := traits.NewRepresentation(rep.Name())
	published.SetID(rep.ID())

	keepLocation := traits.ContainsTrait[traits.KeepOriginalLocation](rep)
	keepName := traits.ContainsTrait[traits.KeepOriginalName](rep)

	for _, trait := range rep.Traits() {
		switch typed := trait.(type) {
		case traits.FileLocation:
			if keepLocation {
				if err := published.AddTrait(typed); err != nil {
					return nil, err
				}
				continue
			}
			destination, err := ig.planFile(
				typed, template, data, keepName, transaction)
			if err != nil {
				return nil, err
			}
			if err := published.AddTrait(*destination); err != nil {
				return nil, err
			}
			ig.addRootless(published, destination.FilePath)

		case traits.FileLocations:
			if keepLocation {
				if err := published.AddTrait(typed); err != nil {
					return nil, err
				}
				continue
			}
			destinations, err := ig.planFiles(
				rep, typed, template, data, keepName, transaction)
			if err != nil {
				return nil, err
			}
			if err := published.AddTrait(*destinations); err != nil {
				return nil, err
			}
			if len(destinations.FilePaths) > 0 {
				ig.addRootless(published, destinations.FilePaths[0].FilePath)
			}

		case traits.Bundle:
			bundled, err := ig.planBundle(typed, template, data, transaction)
			if err != nil {
				return nil, err
			}
			if err := published.AddTrait(*bundled); err != nil {
				return nil, err
			}

		default:
			if err := published.AddTrait(trait); err != nil {
				return nil, err
			}
		}
	}

	if !keepLocation && !published.ContainsTraitID(traits.TemplatePath{}.ID()) {
		if err := published.SetTrait(traits.TemplatePath{
			Template: template.String(),
			Data:     templateData(data),
		}); err != nil {
			return nil, err
		}
	}

	return published, nil
}

// planFile queues the transfer of a single file and returns its
// destination location.
func (ig *Integrator) planFile(
	location traits.FileLocation,
	template *anatomy.Template,
	data map[string]any,
	keepName bool,
	transaction *transfer.Transaction,
) (*traits.FileLocation, error) {
	fileData := withExt(data, location.FilePath)

	destination, err := template.FormatStrict(fileData)
	if err != nil {
		return nil, err
	}
	if keepName {
		destination = filepath.Join(
			filepath.Dir(destination), filepath.Base(location.FilePath))
	}
	if err := transaction.Add(
		location.FilePath, destination, ig.cfg.TransferMode); err != nil {
		return nil, err
	}
	return &traits.FileLocation{
		FilePath: destination,
		FileSize: location.FileSize,
		FileHash: location.FileHash,
	}, nil
}

// planFiles queues transfers for a multi-file representation. Frames
// map to their destination frame-for-frame; UDIM tile sets map
// tile-for-tile.
func (ig *Integrator) planFiles(
	rep *traits.Representation,
	locations traits.FileLocations,
	template *anatomy.Template,
	data map[string]any,
	keepName bool,
	transaction *transfer.Transaction,
) (*traits.FileLocations, error) {
	if sequence, err := traits.GetTrait[traits.Sequence](rep); err == nil {
		return ig.planSequence(
			sequence, locations, template, data, transaction)
	}
	if udim, err := traits.GetTrait[traits.UDIM](rep); err == nil {
		return ig.planUDIM(udim, locations, template, data, transaction)
	}

	// Plain file sets, such as bundle members, keep their own names.
	published := &traits.FileLocations{}
	for _, location := range locations.FilePaths {
		destination, err := ig.planFile(
			location, template, data, true, transaction)
		if err != nil {
			return nil, err
		}
		published.FilePaths = append(published.FilePaths, *destination)
	}
	return published, nil
}

func (ig *Integrator) planSequence(
	sequence traits.Sequence,
	locations traits.FileLocations,
	template *anatomy.Template,
	data map[string]any,
	transaction *transfer.Transaction,
) (*traits.FileLocations, error) {
	frames, err := sequence.Frames(locations)
	if err != nil {
		return nil, err
	}

	// The destination padding is the wider of the template padding and
	// the sequence padding.
	padding := template.Padding("frame")
	if sequence.FramePadding > padding {
		padding = sequence.FramePadding
	}

	published := &traits.FileLocations{}
	for _, frame := range frames {
		source := locations.GetFileLocationForFrame(frame, &sequence)
		if source == nil {
			return nil, fmt.Errorf("no file location found for frame %d", frame)
		}

		frameData := withExt(data, source.FilePath)
		frameData["frame"] = fmt.Sprintf("%0*d", padding, frame)

		destination, err := template.FormatStrict(frameData)
		if err != nil {
			return nil, err
		}
		if err := transaction.Add(
			source.FilePath, destination, ig.cfg.TransferMode); err != nil {
			return nil, err
		}
		published.FilePaths = append(published.FilePaths, traits.FileLocation{
			FilePath: destination,
			FileSize: source.FileSize,
			FileHash: source.FileHash,
		})
	}
	return published, nil
}

func (ig *Integrator) planUDIM(
	udim traits.UDIM,
	locations traits.FileLocations,
	template *anatomy.Template,
	data map[string]any,
	transaction *transfer.Transaction,
) (*traits.FileLocations, error) {
	tiles := append([]int(nil), udim.UDIM...)
	sort.Ints(tiles)

	published := &traits.FileLocations{}
	for _, tile := range tiles {
		source := locations.GetFileLocationForUDIM(tile)
		if source == nil {
			return nil, fmt.Errorf("no file location found for udim tile %d", tile)
		}

		tileData := withExt(data, source.FilePath)
		tileData["udim"] = tile

		destination, err := template.FormatStrict(tileData)
		if err != nil {
			return nil, err
		}
		if err := transaction.Add(
			source.FilePath, destination, ig.cfg.TransferMode); err != nil {
			return nil, err
		}
		published.FilePaths = append(published.FilePaths, traits.FileLocation{
			FilePath: destination,
			FileSize: source.FileSize,
			FileHash: source.FileHash,
		})
	}
	return published, nil
}

// planBundle queues transfers for every bundle item and rebuilds the
// bundle with the destination locations. Items are marked transient,
// as they are not integrated as standalone representations.
func (ig *Integrator) planBundle(
	bundle traits.Bundle,
	template *anatomy.Template,
	data map[string]any,
	transaction *transfer.Transaction,
) (*traits.Bundle, error) {
	published := &traits.Bundle{}
	for n, item := range bundle.Items {
		itemData := templateData(data)
		itemData["output"] = fmt.Sprintf("item%d", n)

		var publishedItem []traits.Trait
		transient := false
		for _, trait := range item {
			switch typed := trait.(type) {
			case traits.FileLocation:
				destination, err := ig.planFile(
					typed, template, itemData, true, transaction)
				if err != nil {
					return nil, err
				}
				publishedItem = append(publishedItem, *destination)
			case traits.FileLocations:
				locations := &traits.FileLocations{}
				for _, location := range typed.FilePaths {
					destination, err := ig.planFile(
						location, template, itemData, true, transaction)
					if err != nil {
						return nil, err
					}
					locations.FilePaths = append(
						locations.FilePaths, *destination)
				}
				publishedItem = append(publishedItem, *locations)
			case traits.Transient:
				transient = true
				publishedItem = append(publishedItem, typed)
			default:
				publishedItem = append(publishedItem, trait)
			}
		}
		if !transient {
			publishedItem = append(publishedItem, traits.Transient{})
		}
		published.Items = append(published.Items, publishedItem)
	}
	return published, nil
}

func (ig *Integrator) addRootless(rep *traits.Representation, destination string) {
	rootless, ok := ig.anatomy.RootlessPath(destination)
	if !ok {
		return
	}
	if err := rep.SetTrait(traits.RootlessLocation{RootlessPath: rootless}); err != nil {
		ig.log.Warn("Failed to set rootless location: %v", err)
	}
}

func mergeFamilies(existing []string, instance *Instance) []string {
	seen := make(map[string]struct{}, len(existing))
	merged := append([]string(nil), existing...)
	for _, family := range existing {
		seen[family] = struct{}{}
	}
	add := func(family string) {
		if family == "" {
			return
		}
		if _, ok := seen[family]; ok {
			return
		}
		seen[family] = struct{}{}
		merged = append(merged, family)
	}
	add(instance.ProductType)
	for _, family := range instance.Families {
		add(family)
	}
	return merged
}

// templateData copies template data so per-file values do not leak
// between files.
func templateData(data map[string]any) map[string]any {
	copied := make(map[string]any, len(data))
	for key, value := range data {
		copied[key] = value
	}
	return copied
}

func withExt(data map[string]any, filePath string) map[string]any {
	copied := templateData(data)
	copied["ext"] = strings.TrimPrefix(filepath.Ext(filePath), ".")
	return copied
}
