package transfer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/employees"
	"perfeval/internal/domain/evaluations"
	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/docstore"
)

type countingCache struct{ calls int }

func (c *countingCache) Invalidate(string) { c.calls++ }

type fixture struct {
	docs     *docstore.Memory
	services Services
	cache    *countingCache
	sess     tenant.Session
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	docs := docstore.NewMemory()
	emps := employees.NewService(employees.NewStore(docs), nil, 0, nil)
	cache := &countingCache{}
	return fixture{
		docs: docs,
		services: Services{
			Employees:   emps,
			Evaluations: evaluations.NewService(evaluations.NewStore(docs), emps, nil, nil),
			Catalog:     catalog.NewService(catalog.NewStore(docs)),
			Cache:       cache,
		},
		cache: cache,
		sess:  tenant.Session{CompanyID: "c1", UserID: "u1"},
	}
}

func (f fixture) importCSV(t *testing.T, target, body string, dryRun bool, batch int) Report {
	t.Helper()
	im := NewImporter(f.docs, f.services, batch)
	report, err := im.ImportFile(context.Background(), f.sess, Options{Target: target, Format: FormatCSV, DryRun: dryRun}, strings.NewReader(body))
	if err != nil {
		t.Fatalf("import %s: %v", target, err)
	}
	return report
}

func (f fixture) count(t *testing.T, collection string) int {
	t.Helper()
	docs, err := f.docs.Find(context.Background(), docstore.Query{Collection: collection, TenantID: f.sess.CompanyID})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	return len(docs)
}

const evaluationsCSV = "Funcionário,Data,Comunicação,Ética,Observação\n" +
	"Ana,15/01/2025,8,\"9,5\",ok\n" +
	",2025-01-01,7,7,\n" +
	"Ana,2025-01-20,6,6,repetida\n" +
	"Bruno,,5,5,\n" +
	"Ana,2025-02,9,9,\n" +
	"Zé,2025-02,9,9,\n"

func TestImportEvaluationsSkipsInvalidAndDuplicateRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"Ana", "Bruno"} {
		if _, err := f.services.Employees.Create(ctx, f.sess, employees.EmployeeInput{Name: name}); err != nil {
			t.Fatalf("employee: %v", err)
		}
	}

	report := f.importCSV(t, TargetEvaluations, evaluationsCSV, false, 0)
	if report.Rows != 6 || report.Imported != 2 || report.Skipped != 4 {
		t.Fatalf("unexpected report: %+v", report)
	}
	lines := map[int]string{}
	for _, issue := range report.Issues {
		lines[issue.Line] = issue.Reason
	}
	if lines[4] != issueDuplicateInFile {
		t.Fatalf("expected in-file duplicate on line 4, got %+v", report.Issues)
	}
	if _, ok := lines[3]; !ok {
		t.Fatalf("row without employee must be skipped, got %+v", report.Issues)
	}
	if f.cache.calls != 1 {
		t.Fatalf("expected one cache invalidation, got %d", f.cache.calls)
	}

	list, _ := f.services.Evaluations.All(ctx, "c1")
	if len(list) != 2 {
		t.Fatalf("expected 2 stored evaluations, got %d", len(list))
	}
	for _, ev := range list {
		if ev.EmployeeID == "" {
			t.Fatalf("evaluation not linked to an employee: %+v", ev)
		}
		if ev.Date == "2025-01-01" && (ev.Scores["Ética"] != 9.5 || float64(ev.Average) != 8.75) {
			t.Fatalf("unexpected january evaluation: %+v", ev)
		}
	}

	again := f.importCSV(t, TargetEvaluations, evaluationsCSV, false, 0)
	if again.Imported != 0 || again.Skipped != 6 {
		t.Fatalf("re-import must not insert duplicates, got %+v", again)
	}
	if f.count(t, docstore.Evaluations) != 2 {
		t.Fatal("duplicate rows were written")
	}
}

func TestImportEmployeesDryRunAndMapping(t *testing.T) {
	f := newFixture(t)
	body := "Nome,Matrícula,Setor,Cargo,Nível,Situação,Data de admissão\n" +
		"Ana,MAT-1,Vendas,Analista,Operacional,Ativo,01/02/2020\n" +
		"ana ,MAT-2,Vendas,Analista,,,\n" +
		"Carlos,mat1,TI,,,,\n" +
		",X,TI,,,,\n" +
		"Dora,,TI,,nivel errado,,\n" +
		"Edu,,,,,Inativo,\n"

	dry := f.importCSV(t, TargetEmployees, body, true, 0)
	if dry.Imported != 2 || dry.Skipped != 4 || !dry.DryRun {
		t.Fatalf("unexpected dry run: %+v", dry)
	}
	if f.count(t, docstore.Employees) != 0 || f.cache.calls != 0 {
		t.Fatal("dry run must not write")
	}

	report := f.importCSV(t, TargetEmployees, body, false, 0)
	if report.Imported != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	ana, found, err := f.services.Employees.Lookup(context.Background(), "c1", "", "ANA")
	if err != nil || !found {
		t.Fatalf("lookup: %v", err)
	}
	if ana.Code != "MAT-1" || ana.Level != catalog.LevelOperational || ana.AdmissionDate != "2020-02-01" || ana.Status != employees.StatusActive {
		t.Fatalf("unexpected mapping: %+v", ana)
	}
}

func TestImportWritesInBatches(t *testing.T) {
	f := newFixture(t)
	report := f.importCSV(t, TargetSectors, "Setor,Descrição\nVendas,Comercial\nTI,\nRH,\nvendas,\n", false, 1)
	if report.Imported != 3 || report.Skipped != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if f.count(t, docstore.Sectors) != 3 {
		t.Fatalf("expected 3 sectors, got %d", f.count(t, docstore.Sectors))
	}
	again := f.importCSV(t, TargetSectors, "nome\nTI\n", false, 1)
	if again.Imported != 0 || again.Issues[0].Reason != issueDuplicateInStore {
		t.Fatalf("expected store duplicate, got %+v", again)
	}
}

func TestImportCriteriaScopedToCompany(t *testing.T) {
	f := newFixture(t)
	report := f.importCSV(t, TargetCriteria, "Critério,Nível\nComunicação,Colaborador\nLiderança,\n", false, 0)
	if report.Imported != 1 || report.Skipped != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	list, err := f.services.Catalog.ListCriteria(context.Background(), f.sess, "")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %+v, %v", list, err)
	}
	if list[0].Shared() || list[0].CompanyIDs[0] != "c1" {
		t.Fatalf("imported criterion must belong to the company, got %+v", list[0])
	}
}

func TestImportXLSX(t *testing.T) {
	f := newFixture(t)
	book := excelize.NewFile()
	for i, row := range [][]any{{"Cargo", "Nível"}, {"Analista", "Operacional"}, {"Gerente", "Tático"}} {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := book.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := book.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	im := NewImporter(f.docs, f.services, 0)
	report, err := im.ImportFile(context.Background(), f.sess, Options{Target: TargetRoles, Format: FormatXLSX}, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Imported != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	roles, _ := f.services.Catalog.ListRoles(context.Background(), f.sess)
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %+v", roles)
	}
}

func TestImportRejectsUnknownInput(t *testing.T) {
	f := newFixture(t)
	im := NewImporter(f.docs, f.services, 0)
	ctx := context.Background()
	if _, err := im.ImportFile(ctx, f.sess, Options{Target: "payroll", Format: FormatCSV}, strings.NewReader("nome\nx\n")); err != ErrUnknownTarget {
		t.Fatalf("expected unknown target, got %v", err)
	}
	if _, err := im.ImportFile(ctx, f.sess, Options{Target: TargetSectors, Format: FormatCSV}, strings.NewReader("foo,bar\n1,2\n")); err != ErrNoKnownColumn {
		t.Fatalf("expected no known column, got %v", err)
	}
	if _, err := im.ImportFile(ctx, f.sess, Options{Target: TargetSectors, Format: "ods"}, strings.NewReader("")); err != ErrUnknownFormat {
		t.Fatalf("expected unknown format, got %v", err)
	}
	if _, err := im.ImportFile(ctx, f.sess, Options{Target: TargetSectors, Format: FormatCSV}, strings.NewReader("")); err != ErrEmptyFile {
		t.Fatalf("expected empty file, got %v", err)
	}
}
