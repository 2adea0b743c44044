package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/floralog/floralog/learning"
	"github.com/floralog/floralog/store"
)

const startText = "🌿 Привет! Я бот для ухода за растениями.\n\n" +
	"Доступные команды:\n" +
	"• /add — добавить растение\n" +
	"• /list — список растений\n" +
	"• /delete — удалить растение\n" +
	"• /calendar — календарь поливов\n" +
	"• /stats — статистика\n" +
	"• /learning — адаптация интервала\n" +
	"• /setcity — город для погоды\n" +
	"• /recalc — уточнить и пересчитать норму полива\n" +
	"• /clearcache — очистить накопленные кэши"

func (b *Bot) handleCommand(ctx context.Context, user *store.User, chatID int64, text string) {
	parts := strings.SplitN(text, " ", 2)
	command := strings.ToLower(parts[0])

	switch command {
	case "/start":
		b.sendText(chatID, startText)
	case "/add":
		b.startAddPlant(user, chatID)
	case "/list":
		b.sendPlantList(ctx, user, chatID)
	case "/delete":
		b.sendDeleteList(ctx, user, chatID)
	case "/calendar":
		b.sendCalendar(ctx, user, chatID)
	case "/stats":
		b.sendStats(ctx, user, chatID)
	case "/learning":
		b.sendLearning(ctx, user, chatID)
	case "/recalc":
		b.startRecalc(ctx, user, chatID)
	case "/clearcache":
		b.askClearCacheConfirmation(chatID)
	case "/cancel":
		b.cancelFlow(user, chatID)
	case "/setcity":
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			b.resolveAndSetCity(ctx, user, chatID, strings.TrimSpace(parts[1]))
		} else {
			state := b.state(user.TelegramID)
			state.step = stepSetCity
			b.sendCityInputPrompt(chatID)
		}
	default:
		b.sendText(chatID, "Не понял команду.\nПопробуй: /add, /list, /calendar")
	}
	slog.Info("command handled", "user", user.TelegramID, "command", command)
}

func (b *Bot) listUserPlants(ctx context.Context, user *store.User) ([]*store.Plant, error) {
	return b.store.ListPlants(ctx, &store.FindPlant{UserID: &user.ID})
}

func (b *Bot) sendPlantList(ctx context.Context, user *store.User, chatID int64) {
	loadingID := b.sendLoadingMessage(chatID, "⏳ Собираю список растений и считаю рекомендации...")

	plants, err := b.listUserPlants(ctx, user)
	if err != nil {
		slog.Error("failed to list plants", "user", user.TelegramID, "err", err)
		b.sendText(chatID, "Не получилось загрузить список растений.")
		return
	}
	if len(plants) == 0 {
		text := "🌱 Список пока пуст.\nДобавь первое растение командой /add"
		if !b.tryEditMessage(chatID, loadingID, text, nil) {
			b.sendText(chatID, text)
		}
		return
	}

	var indoor, outdoor []*store.Plant
	for _, plant := range plants {
		if plant.IsOutdoor() {
			outdoor = append(outdoor, plant)
		} else {
			indoor = append(indoor, plant)
		}
	}

	now := time.Now()
	var sb strings.Builder
	sb.WriteString("🌿 Твои растения\n")
	if len(indoor) > 0 {
		sb.WriteString("\n🏠 Домашние\n")
		for _, plant := range indoor {
			b.appendPlantCard(ctx, &sb, user, plant, now)
		}
	}
	if len(outdoor) > 0 {
		sb.WriteString("\n🌤 Уличные\n")
		for _, plant := range outdoor {
			b.appendPlantCard(ctx, &sb, user, plant, now)
		}
	}

	markup := listWaterKeyboard(plants)
	if !b.tryEditMessage(chatID, loadingID, sb.String(), &markup) {
		b.sendWithMarkup(chatID, sb.String(), markup)
	}
}

func (b *Bot) appendPlantCard(ctx context.Context, sb *strings.Builder, user *store.User, plant *store.Plant, now time.Time) {
	rec, err := b.engine.Recommend(ctx, plant, user)
	if err != nil {
		slog.Error("failed to recommend", "plant_id", plant.ID, "err", err)
		sb.WriteString("\n🪴 " + plant.Name + "\n• не удалось рассчитать рекомендацию\n────────\n")
		return
	}
	advice := b.advisor.SuggestCareAdvice(ctx, plant, rec.IntervalDays)
	renderPlantCard(sb, plant, rec, advice, now)
}

func (b *Bot) sendDeleteList(ctx context.Context, user *store.User, chatID int64) {
	plants, err := b.listUserPlants(ctx, user)
	if err != nil {
		slog.Error("failed to list plants", "user", user.TelegramID, "err", err)
		return
	}
	if len(plants) == 0 {
		b.sendText(chatID, "🗑 Пока нечего удалять.\nСначала добавь растение через /add")
		return
	}
	b.sendWithMarkup(chatID, "Выбери растение для удаления:", deleteKeyboard(plants))
}

func (b *Bot) sendCalendar(ctx context.Context, user *store.User, chatID int64) {
	plants, err := b.listUserPlants(ctx, user)
	if err != nil {
		slog.Error("failed to list plants", "user", user.TelegramID, "err", err)
		return
	}
	if len(plants) == 0 {
		b.sendText(chatID, "🌱 Сначала добавь хотя бы одно растение через /add")
		return
	}

	intervals := make(map[int64]float64, len(plants))
	for _, plant := range plants {
		rec, err := b.engine.Recommend(ctx, plant, user)
		if err != nil {
			slog.Error("failed to recommend", "plant_id", plant.ID, "err", err)
			intervals[plant.ID] = float64(plant.BaseIntervalDays)
			continue
		}
		intervals[plant.ID] = rec.IntervalDays
	}

	now := time.Now()
	nextMonth := now.AddDate(0, 1, 0)
	var sb strings.Builder
	sb.WriteString("📅 Календарь поливов на " + monthTitle(now.Year(), now.Month()) +
		" и " + monthTitle(nextMonth.Year(), nextMonth.Month()) + "\n")
	renderMonthCalendar(&sb, plants, intervals, now.Year(), now.Month())
	renderMonthCalendar(&sb, plants, intervals, nextMonth.Year(), nextMonth.Month())
	b.sendText(chatID, sb.String())
}

func (b *Bot) sendStats(ctx context.Context, user *store.User, chatID int64) {
	plants, err := b.listUserPlants(ctx, user)
	if err != nil {
		slog.Error("failed to list plants", "user", user.TelegramID, "err", err)
		return
	}
	if len(plants) == 0 {
		b.sendText(chatID, "📊 Пока нет данных для статистики.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Статистика:\n")
	for _, plant := range plants {
		logs, err := b.store.ListRecentWateringLogs(ctx, plant.ID)
		if err != nil {
			slog.Error("failed to load watering logs", "plant_id", plant.ID, "err", err)
			continue
		}
		total, err := b.store.CountWateringLogs(ctx, plant.ID)
		if err != nil {
			slog.Error("failed to count watering logs", "plant_id", plant.ID, "err", err)
		}
		avgText := "недостаточно данных"
		if avg, ok := learning.AverageInterval(logs); ok {
			avgText = formatDays(avg)
		}
		sb.WriteString("\n" + plant.Name + "\n")
		sb.WriteString("• средний интервал: " + avgText + "\n")
		sb.WriteString(fmt.Sprintf("• поливов: %d\n", total))
	}
	b.sendText(chatID, sb.String())
}

func (b *Bot) sendLearning(ctx context.Context, user *store.User, chatID int64) {
	plants, err := b.listUserPlants(ctx, user)
	if err != nil {
		slog.Error("failed to list plants", "user", user.TelegramID, "err", err)
		return
	}
	if len(plants) == 0 {
		b.sendText(chatID, "🧠 Пока нечего анализировать.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🧠 Адаптивный интервал:\n")
	for _, plant := range plants {
		info, err := b.engine.LearningInfo(ctx, plant, user)
		if err != nil {
			slog.Error("failed to compute learning info", "plant_id", plant.ID, "err", err)
			continue
		}
		source := "нет данных"
		if plant.LookupSource != "" {
			source = plant.LookupSource
		}
		sb.WriteString("\n" + plant.Name + "\n")
		sb.WriteString("• базовый интервал: " + formatDays(info.BaseIntervalDays) + "\n")
		sb.WriteString("• средний факт.: " + optionalDays(info.AverageIntervalDays) + "\n")
		sb.WriteString("• сглаженный: " + optionalDays(info.SmoothedIntervalDays) + "\n")
		sb.WriteString("• источник автоподбора: " + source + "\n")
		sb.WriteString(fmt.Sprintf("• коэффициенты (сезон/погода/горшок): %.2f/%.2f/%.2f\n",
			info.SeasonFactor, info.WeatherFactor, info.PlantFactor))
		sb.WriteString("• итоговый интервал: " + formatDays(info.FinalIntervalDays) + "\n")
	}
	b.sendText(chatID, sb.String())
}

func optionalDays(v *float64) string {
	if v == nil {
		return "нет данных"
	}
	return formatDays(*v)
}

func (b *Bot) startRecalc(ctx context.Context, user *store.User, chatID int64) {
	plants, err := b.listUserPlants(ctx, user)
	if err != nil {
		slog.Error("failed to list plants", "user", user.TelegramID, "err", err)
		return
	}
	if len(plants) == 0 {
		b.sendText(chatID, "🌱 Сначала добавь растение через /add")
		return
	}
	b.sendWithMarkup(chatID, "Выбери растение для уточнения нормы полива:", recalcPlantKeyboard(plants))
}

func (b *Bot) askClearCacheConfirmation(chatID int64) {
	b.sendWithMarkup(chatID,
		"Очистить все накопленные кэши?\nБудут очищены: поиск растений, OpenRouter-кэши и кэш погоды.",
		clearCacheConfirmKeyboard())
}

func (b *Bot) clearAllCaches(ctx context.Context, chatID int64) {
	lookupRows, err := b.store.PurgePlantLookupCache(ctx)
	if err != nil {
		slog.Error("failed to purge plant lookup cache", "err", err)
	}
	advisorStats := b.advisor.ClearCaches()
	weatherStats := b.weather.ClearCaches()

	text := fmt.Sprintf("🧹 Кэши очищены:\n"+
		"• Поиск растений (БД): %d\n"+
		"• OpenRouter (care/watering): %d/%d\n"+
		"• Погода (cache/rainKeys/samples): %d/%d/%d",
		lookupRows, advisorStats.CareAdviceEntries, advisorStats.WateringProfileEntries,
		weatherStats.WeatherEntries, weatherStats.RainKeys, weatherStats.RainSamples)
	b.sendText(chatID, text)
	slog.Info("caches cleared via command",
		"lookup_rows", lookupRows,
		"openrouter_care", advisorStats.CareAdviceEntries,
		"openrouter_water", advisorStats.WateringProfileEntries,
		"weather_entries", weatherStats.WeatherEntries,
		"rain_keys", weatherStats.RainKeys,
		"rain_samples", weatherStats.RainSamples)
}
