package llm

import (
	"context"

	"conductor/internal/domain"
)

// Offline is the demo-mode collaborator used when no API key is configured.
// Its reply carries a valid directive block so the extraction and
// interpretation path is exercised end to end without a network call.
type Offline struct{}

const offlineReply = `Задача понятна: Анализ запроса пользователя (Демо режим).

Система работает в демонстрационном режиме без API ключа. Подключите Gemini API для полноценной работы.

[BACKSTAGE]
Роль: Оркестратор
Действие: Эмуляция ответа
OPCODE: JSON_CMD
PAYLOAD: {"type":"create_task","title":"Подключить Gemini API","description":"Система в демо режиме: задайте API ключ.","assigneeRole":"Ops"}
[/BACKSTAGE]`

func (Offline) Configured() bool { return false }

func (Offline) Send(ctx context.Context, history []domain.ChatMessage, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return offlineReply, nil
}
