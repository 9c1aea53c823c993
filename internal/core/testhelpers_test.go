package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// xlsxBytes builds a single-sheet workbook in memory.
func xlsxBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// sheetRows returns a header plus n data rows.
func sheetRows(n int) [][]any {
	rows := [][]any{{"Código", "Descrição", "Unidade", "Preço"}}
	for i := 1; i <= n; i++ {
		rows = append(rows, []any{fmt.Sprintf("C%03d", i), fmt.Sprintf("Item %d", i), "m2", i * 10})
	}
	return rows
}

func fastSteps() []Step {
	return []Step{
		DelayStep(StageSourceA, time.Millisecond),
		DelayStep(StageSourceB, time.Millisecond),
		DelayStep(StageConsolidating, time.Millisecond),
	}
}

func newTestController(t *testing.T, steps []Step, opts ...func(*ControllerOptions)) *Controller {
	t.Helper()

	p, err := NewPipeline(steps...)
	require.NoError(t, err)

	o := ControllerOptions{
		Pipeline: p,
		Limiter:  NewRunLimiter(2, 100*time.Millisecond),
	}
	for _, fn := range opts {
		fn(&o)
	}

	c := NewController(context.Background(), "test-session", o)
	t.Cleanup(c.Close)
	return c
}

func waitRun(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

func xlsxFile(name string) UploadedFile {
	return UploadedFile{Name: name, ContentType: MIMETypeXLSX}
}
