package core

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ToastTTL is how long a notification stays in the session view.
var ToastTTL = 5 * time.Second

// ToastVariant selects the notification style.
type ToastVariant string

const (
	ToastDefault     ToastVariant = "default"
	ToastDestructive ToastVariant = "destructive"
)

// Toast is a transient user-facing notification.
type Toast struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Variant     ToastVariant `json:"variant"`
	CreatedAt   time.Time    `json:"created_at"`
}

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// FormatCount formats n with pt-BR digit grouping ("1.234").
func FormatCount(n int) string {
	return ptBR.Sprintf("%d", n)
}

// Plural picks the singular form for exactly one, the plural form otherwise.
func Plural(n int, one, other string) string {
	if n == 1 {
		return one
	}
	return other
}

func newToast(title, description string, variant ToastVariant) Toast {
	return Toast{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Variant:     variant,
		CreatedAt:   time.Now(),
	}
}

func toastFileLoaded(items int) Toast {
	return newToast("Arquivo carregado",
		FormatCount(items)+" "+Plural(items, "item detectado", "itens detectados")+" na planilha",
		ToastDefault)
}

func toastReadFailed() Toast {
	return newToast("Erro ao ler arquivo",
		"Não foi possível processar a planilha Excel",
		ToastDestructive)
}

func toastProcessingComplete() Toast {
	return newToast("Processamento concluído",
		"Sua planilha consolidada está pronta!",
		ToastDefault)
}

func toastProcessingFailed(msg UserMessage) Toast {
	return newToast("Erro no processamento", msg.Message, ToastDestructive)
}

func toastDownloadStarted() Toast {
	return newToast("Download iniciado",
		"Sua planilha consolidada será baixada em instantes",
		ToastDefault)
}
