// Package seed provides the demo workspace the session starts from.
package seed

import (
	"conductor/internal/domain"
	"conductor/internal/store"
)

func Workspace() store.Seed {
	return store.Seed{
		Projects:     Projects(),
		Team:         Team(),
		Tasks:        Tasks(),
		ContextItems: ContextItems(),
	}
}

func Projects() []domain.Project {
	return []domain.Project{
		{
			ID:          "p1",
			Name:        "Chrome VPN Расширение",
			Description: "Разработка безопасного, ориентированного на конфиденциальность VPN-расширения для Chrome.",
			Class:       domain.ClassIT,
			KPIs:        []string{"Задержка < 50мс", "Удержание пользователей > 40%", "Сбои < 0.1%"},
			Goals:       []string{"Проектирование архитектуры", "Разработка MVP", "Аудит безопасности"},
			Subgoals:    []string{"Manifest V3", "Слой шифрования"},
			Status:      "Online",
			TrustScore:  98, DataScore: 75, ComplexityScore: 82,
			Temperature: 0.4,
		},
		{
			ID:          "p2",
			Name:        "Оптимизация Ozon",
			Description: "Оптимизация товарных позиций для маркетплейса Ozon с целью повышения CTR.",
			Class:       domain.ClassMkt,
			KPIs:        []string{"CTR > 3.5%", "RoAS > 400%", "Конверсия > 2%"},
			Goals:       []string{"Аудит листингов", "A/B тестирование фото", "SEO ключевые слова"},
			Subgoals:    []string{"Анализ конкурентов", "Стратегия ценообразования"},
			Status:      "Online",
			TrustScore:  92, DataScore: 60, ComplexityScore: 45,
			Temperature: 0.7,
		},
	}
}

func Team() []domain.TeamMember {
	return []domain.TeamMember{
		{ID: "tm1", Role: "Руководитель проекта", Name: "AI_Orchestrator", Effectiveness: 99, Workload: 40},
		{ID: "tm2", Role: "Стратег", Name: "Agent_Alpha", Effectiveness: 88, Workload: 65},
		{ID: "tm3", Role: "Аналитик", Name: "Agent_Beta", Effectiveness: 92, Workload: 50},
		{ID: "tm4", Role: "Ops", Name: "Agent_Gamma", Effectiveness: 85, Workload: 30},
		{ID: "tm5", Role: "Техлид", Name: "Agent_Delta", Effectiveness: 94, Workload: 80},
	}
}

func Tasks() []domain.Task {
	return []domain.Task{
		{ID: "t1", Title: "Определить стандарт шифрования", Description: "Выбрать AES-256 или ChaCha20", Status: domain.StatusConfirmed, AssigneeRole: "Техлид", Origin: domain.OriginAI},
		{ID: "t2", Title: "Черновик Manifest V3", Description: "Создать manifest.json совместимый с Google Store", Status: domain.StatusWaitingApproval, AssigneeRole: "Техлид", Origin: domain.OriginAI},
		{ID: "t3", Title: "Макеты UI", Description: "Дизайн интерфейса всплывающего окна", Status: domain.StatusInProgress, AssigneeRole: "Стратег", Origin: domain.OriginUser},
		{ID: "t4", Title: "Настройка CI/CD", Description: "Пайплайн Github Actions", Status: domain.StatusBacklog, AssigneeRole: "Ops", Origin: domain.OriginAI},
	}
}

func ContextItems() []domain.ContextItem {
	return []domain.ContextItem{
		{ID: "c1", Title: "PRD_v1.0.pdf", Type: "doc", Date: "2023-10-25"},
		{ID: "c2", Title: "Решение по архитектуре 04", Type: "decision", Date: "2023-10-26", Content: "Выбран React для UI из-за переиспользуемости компонентов."},
		{ID: "c3", Title: "Заметки со встречи", Type: "history", Date: "2023-10-27", Content: "Клиент запросил темную тему по умолчанию."},
	}
}

// WelcomeContent is the first AI message of a fresh session.
func WelcomeContent(projectName string) string {
	return "Оркестратор онлайн. Контекст проекта \"" + projectName + "\" загружен.\n\n" +
		"[BACKSTAGE]\nРоль: Руководитель проекта\nМетрики: KPI загружены, Команда собрана.\nДействие: Ожидаю инструкций пользователя.\n[/BACKSTAGE]"
}
