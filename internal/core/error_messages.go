// # Error Codes Reference
//
// Technical errors are mapped to Portuguese user messages with a code that
// users can quote to support.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Arquivo muito grande
//	          Patterns: "file too large"
//	FILE002 - Formato não suportado (not an .xlsx/.xls container)
//	          Patterns: "unsupported spreadsheet format"
//	FILE003 - Planilha ilegível (container recognized, content broken)
//	          Patterns: "invalid workbook"
//	FILE004 - Nenhum arquivo selecionado
//	          Patterns: "no file provided"
//	FILE005 - Mais de um arquivo selecionado
//	          Patterns: "only one file"
//	FILE006 - Tipo de arquivo não aceito
//	          Patterns: "file type not accepted"
//
// # Processing Errors (PIPE001-PIPE099)
//
//	PIPE001 - Envio bloqueado durante o processamento
//	          Patterns: "upload disabled"
//	PIPE002 - Nenhuma planilha carregada
//	          Patterns: "no spreadsheet loaded"
//	PIPE003 - Processamento já iniciado
//	          Patterns: "processing already started"
//	PIPE004 - Processamento não concluído
//	          Patterns: "processing not complete"
//	PIPE005 - Transição de etapa inválida
//	          Patterns: "invalid stage transition"
//	PIPE006 - Falha em uma etapa
//	          Patterns: "step "
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Sistema ocupado
//	         Patterns: "too many concurrent runs"
//	RUN002 - Operação cancelada
//	         Patterns: "context canceled"
//	RUN003 - Tempo esgotado
//	         Patterns: "context deadline exceeded"
//
// # Request Errors (REQ001-REQ099, RATE001)
//
//	REQ001 - Sessão não encontrada
//	         Patterns: "session not found"
//	REQ002 - Requisição inválida
//	         Patterns: "invalid request"
//	RATE001 - Muitas requisições
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the logs for the technical error.
//
// # Pattern Matching
//
// Patterns are matched case-insensitively with strings.Contains. The first
// match wins, so specific patterns come before general ones: a failed step
// wrapping a timeout reports RUN003, not PIPE006.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "O arquivo excede o tamanho máximo permitido",
			Action:  "Divida a planilha em arquivos menores",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported spreadsheet format",
		msg: UserMessage{
			Message: "O arquivo não é uma planilha Excel válida",
			Action:  "Selecione um arquivo .xlsx ou .xls",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid workbook",
		msg: UserMessage{
			Message: "Não foi possível processar a planilha Excel",
			Action:  "Verifique se o arquivo não está corrompido e selecione-o novamente",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "Nenhum arquivo foi selecionado",
			Action:  "Selecione uma planilha Excel para enviar",
			Code:    "FILE004",
		},
	},
	{
		pattern: "only one file",
		msg: UserMessage{
			Message: "Apenas um arquivo pode ser enviado por vez",
			Action:  "Selecione uma única planilha",
			Code:    "FILE005",
		},
	},
	{
		pattern: "file type not accepted",
		msg: UserMessage{
			Message: "Tipo de arquivo não aceito",
			Action:  "Selecione um arquivo .xlsx ou .xls",
			Code:    "FILE006",
		},
	},

	// Run errors come before step errors so a failed step reports its cause.
	{
		pattern: "too many concurrent runs",
		msg: UserMessage{
			Message: "O sistema está ocupado com outros processamentos",
			Action:  "Aguarde alguns instantes e tente novamente",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "A operação foi cancelada",
			Action:  "Tente novamente",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "O processamento excedeu o tempo limite",
			Action:  "Tente novamente em alguns instantes",
			Code:    "RUN003",
		},
	},

	// Processing errors
	{
		pattern: "upload disabled",
		msg: UserMessage{
			Message: "Não é possível enviar um arquivo durante o processamento",
			Action:  "Aguarde o término do processamento atual",
			Code:    "PIPE001",
		},
	},
	{
		pattern: "no spreadsheet loaded",
		msg: UserMessage{
			Message: "Nenhuma planilha foi carregada",
			Action:  "Envie uma planilha antes de iniciar o processamento",
			Code:    "PIPE002",
		},
	},
	{
		pattern: "processing already started",
		msg: UserMessage{
			Message: "O processamento já foi iniciado",
			Action:  "Aguarde o término ou envie uma nova planilha",
			Code:    "PIPE003",
		},
	},
	{
		pattern: "processing not complete",
		msg: UserMessage{
			Message: "O processamento ainda não foi concluído",
			Action:  "Aguarde a conclusão para baixar a planilha consolidada",
			Code:    "PIPE004",
		},
	},
	{
		pattern: "invalid stage transition",
		msg: UserMessage{
			Message: "Operação não permitida nesta etapa",
			Action:  "Recarregue a página e tente novamente",
			Code:    "PIPE005",
		},
	},
	{
		pattern: "step ",
		msg: UserMessage{
			Message: "Falha em uma etapa do processamento",
			Action:  "Tente processar a planilha novamente",
			Code:    "PIPE006",
		},
	},

	// Request errors
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Sessão não encontrada",
			Action:  "Recarregue a página",
			Code:    "REQ001",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "Requisição inválida",
			Action:  "Recarregue a página e tente novamente",
			Code:    "REQ002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Muitas requisições",
			Action:  "Aguarde um momento antes de tentar novamente",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "Ocorreu um erro inesperado",
	Action:  "Tente novamente ou entre em contato com o suporte",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// The first matching pattern wins; ERR000 is returned when none match.
//
// Example:
//
//	msg := MapError(fmt.Errorf("parse: %w", ErrInvalidWorkbook))
//	// msg.Code == "FILE003"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Código: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Código: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
