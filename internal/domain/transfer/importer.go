package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/employees"
	"perfeval/internal/domain/evaluations"
	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/docstore"
	"perfeval/internal/platform/textnorm"
)

type Invalidator interface {
	Invalidate(companyID string)
}

type Recorder interface {
	Record(ctx context.Context, sess tenant.Session, action, entityType, entityID string, before, after any) error
}

type ImportRecorder interface {
	RecordImport(imported, skipped int)
}

// Services are the domain services an import validates rows through. Cache,
// Audit and Metrics are optional.
type Services struct {
	Employees   *employees.Service
	Evaluations *evaluations.Service
	Catalog     *catalog.Service
	Cache       Invalidator
	Audit       Recorder
	Metrics     ImportRecorder
}

type Importer struct {
	docs      docstore.Store
	services  Services
	batchSize int
}

func NewImporter(docs docstore.Store, services Services, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}
	return &Importer{docs: docs, services: services, batchSize: batchSize}
}

// prepared is a validated row ready to be written. keys identify the row
// for in-file duplicate detection.
type prepared struct {
	collection string
	data       map[string]any
	keys       []string
}

var errDuplicate = errors.New(issueDuplicateInStore)

type importRun struct {
	sess  tenant.Session
	index *employees.Index
}

func (im *Importer) ImportFile(ctx context.Context, sess tenant.Session, opts Options, r io.Reader) (Report, error) {
	table, err := Read(opts.Format, r)
	if err != nil {
		return Report{Target: opts.Target, DryRun: opts.DryRun, Issues: []Issue{}}, err
	}
	return im.Import(ctx, sess, opts.Target, table, opts.DryRun)
}

// Import validates every row, skips the bad and duplicate ones and writes
// the rest in atomic batches. A store failure stops the import; batches
// written before it stay written.
func (im *Importer) Import(ctx context.Context, sess tenant.Session, target string, table Table, dryRun bool) (Report, error) {
	report := Report{Target: target, DryRun: dryRun, Issues: []Issue{}}
	if err := sess.Require(); err != nil {
		return report, err
	}
	records, err := table.Records(target)
	if err != nil {
		return report, err
	}
	report.Rows = len(records)

	run := &importRun{sess: sess}
	if target == TargetEvaluations {
		list, err := im.services.Employees.All(ctx, sess.CompanyID)
		if err != nil {
			return report, err
		}
		run.index = employees.NewIndex(list)
	}

	seen := map[string]bool{}
	var pending []docstore.Mutation
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if !dryRun {
			if err := im.docs.Batch(ctx, pending); err != nil {
				return fmt.Errorf("import batch after %d rows: %w", report.Imported, err)
			}
		}
		report.Imported += len(pending)
		pending = nil
		return nil
	}

	for _, rec := range records {
		row, err := im.prepare(ctx, run, target, rec)
		if err != nil {
			var storeErr *docstore.Error
			if errors.As(err, &storeErr) {
				return report, err
			}
			report.skip(rec.Line, err.Error())
			continue
		}
		if duplicateIn(seen, row.keys) {
			report.skip(rec.Line, issueDuplicateInFile)
			continue
		}
		pending = append(pending, docstore.Mutation{
			Kind:       docstore.MutationCreate,
			Collection: row.collection,
			ID:         docstore.NewID(),
			Data:       row.data,
		})
		if len(pending) >= im.batchSize {
			if err := flush(); err != nil {
				im.finish(ctx, sess, report)
				return report, err
			}
		}
	}
	if err := flush(); err != nil {
		im.finish(ctx, sess, report)
		return report, err
	}
	im.finish(ctx, sess, report)
	return report, nil
}

func (r *Report) skip(line int, reason string) {
	r.Skipped++
	r.Issues = append(r.Issues, Issue{Line: line, Reason: reason})
}

func duplicateIn(seen map[string]bool, keys []string) bool {
	for _, k := range keys {
		if seen[k] {
			return true
		}
	}
	for _, k := range keys {
		seen[k] = true
	}
	return false
}

func (im *Importer) finish(ctx context.Context, sess tenant.Session, report Report) {
	if im.services.Metrics != nil {
		im.services.Metrics.RecordImport(report.Imported, report.Skipped)
	}
	if report.DryRun || report.Imported == 0 {
		return
	}
	if im.services.Cache != nil {
		im.services.Cache.Invalidate(sess.CompanyID)
	}
	if im.services.Audit != nil {
		summary := map[string]any{"target": report.Target, "imported": report.Imported, "skipped": report.Skipped}
		if err := im.services.Audit.Record(ctx, sess, "import", EntityType, report.Target, nil, summary); err != nil {
			slog.Warn("audit record failed", "action", "import", "target", report.Target, "err", err)
		}
	}
}

func (im *Importer) prepare(ctx context.Context, run *importRun, target string, rec Record) (prepared, error) {
	switch target {
	case TargetEmployees:
		return im.prepareEmployee(ctx, run.sess, rec)
	case TargetEvaluations:
		return im.prepareEvaluation(ctx, run, rec)
	case TargetSectors:
		return im.prepareSector(ctx, run.sess, rec)
	case TargetRoles:
		return im.prepareRole(ctx, run.sess, rec)
	case TargetCriteria:
		return im.prepareCriterion(ctx, run.sess, rec)
	}
	return prepared{}, ErrUnknownTarget
}

func (im *Importer) prepareEmployee(ctx context.Context, sess tenant.Session, rec Record) (prepared, error) {
	f := rec.Fields
	employee, err := im.services.Employees.Prepare(ctx, sess, employees.EmployeeInput{
		Name:            f[fieldName],
		Code:            f[fieldCode],
		Sector:          f[fieldSector],
		Role:            f[fieldRole],
		Level:           f[fieldLevel],
		Status:          f[fieldStatus],
		AdmissionDate:   day(f[fieldAdmissionDate]),
		TerminationDate: day(f[fieldTerminationDate]),
		Profile:         f[fieldProfile],
	})
	if errors.Is(err, employees.ErrDuplicateName) || errors.Is(err, employees.ErrDuplicateCode) {
		return prepared{}, errDuplicate
	}
	if err != nil {
		return prepared{}, err
	}
	data, err := employees.Data(employee)
	if err != nil {
		return prepared{}, err
	}
	keys := []string{"name:" + textnorm.Key(employee.Name)}
	if code := textnorm.Code(employee.Code); code != "" {
		keys = append(keys, "code:"+code)
	}
	return prepared{collection: docstore.Employees, data: data, keys: keys}, nil
}

func (im *Importer) prepareEvaluation(ctx context.Context, run *importRun, rec Record) (prepared, error) {
	f := rec.Fields
	input := evaluations.EvaluationInput{
		EmployeeName:    f[fieldEmployeeName],
		Sector:          f[fieldSector],
		Role:            f[fieldRole],
		Level:           f[fieldLevel],
		Date:            f[fieldDate],
		Scores:          map[string]float64{},
		Observation:     f[fieldObservation],
		Highlight:       truthy[textnorm.Key(f[fieldHighlight])],
		HighlightReason: f[fieldHighlightReason],
	}
	if employee, ok := run.index.Resolve("", f[fieldEmployeeCode], f[fieldEmployeeName]); ok {
		input.EmployeeID = employee.ID
	}
	for column, raw := range rec.Extra {
		if v, ok := parseScoreCell(raw); ok {
			input.Scores[column] = v
		}
	}

	evaluation, err := im.services.Evaluations.Prepare(ctx, run.sess, input)
	if err != nil {
		return prepared{}, err
	}
	dup, err := im.services.Evaluations.Exists(ctx, evaluation)
	if err != nil {
		return prepared{}, err
	}
	if dup {
		return prepared{}, errDuplicate
	}
	data, err := evaluations.Data(evaluation)
	if err != nil {
		return prepared{}, err
	}
	return prepared{
		collection: docstore.Evaluations,
		data:       data,
		keys:       []string{evaluation.EmployeeID + "|" + evaluation.Date},
	}, nil
}

func (im *Importer) prepareSector(ctx context.Context, sess tenant.Session, rec Record) (prepared, error) {
	sector, err := im.services.Catalog.PrepareSector(ctx, sess, catalog.SectorInput{
		Name:        rec.Fields[fieldName],
		Description: rec.Fields[fieldDescription],
	})
	if errors.Is(err, catalog.ErrDuplicateName) {
		return prepared{}, errDuplicate
	}
	if err != nil {
		return prepared{}, err
	}
	data, err := catalog.NamedData(&sector, sector.Name)
	if err != nil {
		return prepared{}, err
	}
	return prepared{collection: docstore.Sectors, data: data, keys: []string{textnorm.Key(sector.Name)}}, nil
}

func (im *Importer) prepareRole(ctx context.Context, sess tenant.Session, rec Record) (prepared, error) {
	role, err := im.services.Catalog.PrepareRole(ctx, sess, catalog.RoleInput{
		Name:  rec.Fields[fieldName],
		Level: rec.Fields[fieldLevel],
	})
	if errors.Is(err, catalog.ErrDuplicateName) {
		return prepared{}, errDuplicate
	}
	if err != nil {
		return prepared{}, err
	}
	data, err := catalog.NamedData(&role, role.Name)
	if err != nil {
		return prepared{}, err
	}
	return prepared{collection: docstore.Roles, data: data, keys: []string{textnorm.Key(role.Name)}}, nil
}

func (im *Importer) prepareCriterion(ctx context.Context, sess tenant.Session, rec Record) (prepared, error) {
	criterion, err := im.services.Catalog.PrepareCriterion(ctx, sess, catalog.CriterionInput{
		Name:        rec.Fields[fieldName],
		Level:       rec.Fields[fieldLevel],
		Description: rec.Fields[fieldDescription],
		CompanyIDs:  splitList(rec.Fields[fieldCompanyIDs]),
	})
	if errors.Is(err, catalog.ErrDuplicateName) {
		return prepared{}, errDuplicate
	}
	if err != nil {
		return prepared{}, err
	}
	data, err := catalog.CriterionData(criterion)
	if err != nil {
		return prepared{}, err
	}
	return prepared{
		collection: docstore.Criteria,
		data:       data,
		keys:       []string{textnorm.Key(criterion.Name) + "|" + criterion.Level},
	}, nil
}

// parseScoreCell accepts "8", "8.5" and "8,5". Text that is not a number is
// not a score column.
func parseScoreCell(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return evaluations.ClampScore(v), true
}

var dayLayouts = []string{"2006-01-02", "02/01/2006", "2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05"}

// day rewrites a calendar date to YYYY-MM-DD; unknown layouts pass through
// so the domain reports them.
func day(raw string) string {
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == ',' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
