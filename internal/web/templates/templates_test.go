package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/orcaflow/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestFileUpload_Disabled(t *testing.T) {
	enabled := render(t, FileUpload(false))
	disabled := render(t, FileUpload(true))

	assert.NotContains(t, enabled, " disabled")
	assert.Contains(t, disabled, " disabled>")
	assert.Contains(t, disabled, "is-disabled")
	assert.Contains(t, enabled, `accept="`+templ.EscapeString(core.AcceptAttr)+`"`)
}

func TestDataPreview(t *testing.T) {
	t.Run("nil renders nothing", func(t *testing.T) {
		assert.Empty(t, render(t, DataPreview(nil)))
	})

	t.Run("escapes cells and counts rows", func(t *testing.T) {
		g := core.GridFromStrings([][]string{
			{"Código", "Descrição"},
			{"C1", "<b>tijolo</b>"},
			{"C2"},
		})
		out := render(t, DataPreview(core.BuildPreview(g, "a&b.xlsx")))

		assert.Contains(t, out, "a&amp;b.xlsx - 2 linhas detectadas")
		assert.Contains(t, out, "&lt;b&gt;tijolo&lt;/b&gt;")
		assert.NotContains(t, out, "linhas adicionais")
	})

	t.Run("colgroup spans the widest row", func(t *testing.T) {
		g := core.GridFromStrings([][]string{
			{"Código"},
			{"C1", "tijolo", "un"},
		})
		out := render(t, DataPreview(core.BuildPreview(g, "f.xlsx")))

		assert.Equal(t, 3, strings.Count(out, "<col>"))
	})

	t.Run("singular footer", func(t *testing.T) {
		rows := [][]string{{"h"}}
		for range 6 {
			rows = append(rows, []string{"x"})
		}
		out := render(t, DataPreview(core.BuildPreview(core.GridFromStrings(rows), "f.xlsx")))
		assert.Contains(t, out, "+ 1 linha adicional")
	})
}

func TestProcessingStatus(t *testing.T) {
	checklist := core.NewChecklist("ORSE", "SIMAPI")

	t.Run("idle renders nothing", func(t *testing.T) {
		assert.Empty(t, render(t, ProcessingStatus(core.BuildStatus(checklist, core.NewState()))))
	})

	t.Run("in flight shows progress and checklist", func(t *testing.T) {
		s := core.NewState()
		s.Stage = core.StageSourceB
		s.Progress = 50
		s.TotalItems = 1234

		out := render(t, ProcessingStatus(core.BuildStatus(checklist, s)))

		assert.Contains(t, out, "Processamento em andamento")
		assert.Contains(t, out, `<progress class="progress" value="50" max="100">`)
		assert.Contains(t, out, `class="step step-complete">Consultando ORSE`)
		assert.Contains(t, out, `class="step step-active">Consultando SIMAPI`)
		assert.Contains(t, out, `class="step step-pending">Consolidando dados`)
		assert.Contains(t, out, "Itens processados: 0 de 1.234")
	})

	t.Run("error shows message", func(t *testing.T) {
		s := core.NewState()
		s.Stage = core.StageError
		s.ErrorMessage = "Falha em uma etapa do processamento"

		out := render(t, ProcessingStatus(core.BuildStatus(checklist, s)))

		assert.Contains(t, out, "Falha em uma etapa do processamento")
		assert.NotContains(t, out, "<progress")
	})
}

func TestToasts(t *testing.T) {
	out := render(t, Toasts([]core.Toast{
		{ID: "t1", Title: "Erro ao ler arquivo", Description: "x", Variant: core.ToastDestructive},
	}))

	assert.Contains(t, out, `id="toast-t1"`)
	assert.Contains(t, out, "toast-destructive")
	assert.Contains(t, out, "Erro ao ler arquivo")
}

func TestErrorAlert(t *testing.T) {
	out := render(t, ErrorAlert("Tipo de arquivo não aceito", "Selecione um arquivo .xlsx ou .xls", "FILE006"))

	assert.Contains(t, out, `id="alert"`)
	assert.Contains(t, out, "Código: FILE006")
}

func TestPage_SubscribesToUpdates(t *testing.T) {
	out := render(t, Page(NewAppView(core.NewState(), core.NewChecklist("ORSE", "SIMAPI"), "ORSE", "SIMAPI")))

	assert.Contains(t, out, `data-init="@get('/updates')"`)
	assert.Contains(t, out, DatastarScript)
	assert.Contains(t, out, "Como funciona")
	assert.Contains(t, out, `<div id="alert"></div>`)
}
