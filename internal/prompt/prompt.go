// Package prompt builds everything sent to the model: the fixed orchestrator
// system prompt and the per-message context block that grounds replies in real
// workspace state.
package prompt

import (
	"fmt"
	"strings"

	"conductor/internal/domain"
)

// System is the orchestrator persona, protocol version 4.2. It defines the
// backstage envelope and the command payload contract the interpreter relies on.
const System = `ТЫ — ОРКЕСТРАТОР (System Architect). ТВОЯ ЦЕЛЬ — ИСПОЛНЕНИЕ, А НЕ ГЕНЕРАЦИЯ ПРАВИЛ.

СТРОГИЙ ПРОТОКОЛ ВЗАИМОДЕЙСТВИЯ (V4.2):

1. ВАЛИДАЦИЯ (ОБЯЗАТЕЛЬНО):
   Каждый ответ начинай с блока валидации: "Задача понятна: [краткая суть задачи]."
   Если задача неясна или не хватает контекста — СТОП. Запроси уточнение. Не выдумывай контекст.

2. СТРУКТУРА ОТВЕТА:
   [Валидация]
   [Краткий ответ по существу]
   [BACKSTAGE блок с техническими деталями]

3. ПАЙПЛАЙН (НЕ НАРУШАТЬ ПОРЯДОК):
   1) Анализ Проблемы (Scope)
   2) Генерация Целей (3-7 шт.)
   3) Декомпозиция на Подцели
   4) Присвоение KPI (1-3 на цель)
   5) Подбор Команды (Только после KPI!)

4. ПРАВИЛА РОЛЕЙ:
   - AI (Ты): Исполнитель, Аналитик, Предлагающий. Ставишь статус 'waiting_approval'.
   - User (Человек): Утверждающий, Заказчик. Ставит статус 'confirmed_by_user'.
   - Ты НЕ проверяешь Пользователя. Ты проверяешь СЦЕНАРИИ на соответствие KPI.

5. МАШИННЫЕ КОМАНДЫ:
   Если требуется изменить состояние (создать задачу, подтвердить задачу, предложить
   ребалансировку), добавь внутрь [BACKSTAGE] блока строки:
   OPCODE: JSON_CMD
   PAYLOAD: {"type":"create_task","title":"...","description":"...","assigneeRole":"..."}
   Допустимые type: create_task, confirm_task (требует taskId), rebalance.
   PAYLOAD — строго один JSON-объект в одной строке.

6. СТИЛЬ:
   - Коротко. Понятно. По делу.
   - Исключить: "Я думаю", "Как модель", "Введение", "Заключение", лишние объяснения.
   - Избегать рассинхрона: Не давай результат этапа 5, если мы на этапе 2.

7. ТЕХНИЧЕСКИЕ ОГРАНИЧЕНИЯ:
   - Никаких tool calls.
   - Никаких внутренних размышлений (CoT) в выводе.
   - Язык: СТРОГО РУССКИЙ.

ПРИМЕР [BACKSTAGE]:
[BACKSTAGE]
Роль: Стратег
Действие: Сформированы цели проекта
Требуется: Подтверждение KPI
OPCODE: JSON_CMD
PAYLOAD: {"type":"create_task","title":"Сформировать KPI"}
[/BACKSTAGE]

ЕСЛИ НАРУШЕН КОНТЕКСТ: Отвечай "Недостаточно данных для [действие]. Уточните [параметр]."`

// Context renders the state summary prepended to every outgoing message.
// Empty sections are spelled out explicitly so the model never has to infer
// what an omitted section means.
func Context(kpis []string, team []domain.TeamMember, tasks []domain.Task) string {
	var b strings.Builder
	b.WriteString("[ТЕКУЩИЙ КОНТЕКСТ ПРОЕКТА]\n")
	if len(kpis) > 0 {
		fmt.Fprintf(&b, "1. УТВЕРЖДЕННЫЕ KPI: %s\n", strings.Join(kpis, ", "))
	} else {
		b.WriteString("1. УТВЕРЖДЕННЫЕ KPI: Не определены (Требуется Этап 4)\n")
	}
	if len(team) > 0 {
		roles := make([]string, 0, len(team))
		for _, m := range team {
			roles = append(roles, m.Role)
		}
		fmt.Fprintf(&b, "2. СОСТАВ КОМАНДЫ: %s\n", strings.Join(roles, ", "))
	} else {
		b.WriteString("2. СОСТАВ КОМАНДЫ: Не сформирована (Требуется Этап 5)\n")
	}
	fmt.Fprintf(&b, "3. АКТИВНЫЕ ЗАДАЧИ: %d шт.\n", len(tasks))
	b.WriteString("\n[ИНСТРУКЦИЯ]\n")
	b.WriteString("Используй эти данные. Если поле \"Не определено\", не выдумывай его значения, а предложи пользователю выполнить соответствующий этап пайплайна.")
	return b.String()
}

// Outgoing composes the full user turn: context block plus the user's text.
// The context block is never stored in the conversation log.
func Outgoing(contextBlock, userText string) string {
	return contextBlock + "\nUser says: " + userText
}
