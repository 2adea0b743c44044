package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/floralog/floralog/store"
	"github.com/floralog/floralog/weather"
)

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil || query.From == nil {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		slog.Warn("failed to ack callback", "err", err)
	}

	data := query.Data
	chatID := query.Message.Chat.ID
	user, err := b.getOrCreateUser(ctx, query.From)
	if err != nil {
		slog.Error("failed to resolve user", "err", err)
		return
	}

	switch {
	case strings.HasPrefix(data, "watered:"):
		b.handleWatered(ctx, user, chatID, strings.TrimPrefix(data, "watered:"))
	case strings.HasPrefix(data, "delete:"):
		b.handleDelete(ctx, user, chatID, strings.TrimPrefix(data, "delete:"))
	case data == "cancel":
		b.cancelFlow(user, chatID)
	case data == "recalc:city:current":
		b.handleRecalcCurrentCity(ctx, user, chatID)
	case data == "clearcache:confirm":
		b.clearAllCaches(ctx, chatID)
	case data == "clearcache:cancel":
		b.sendText(chatID, "Ок, очистку кэша отменил.")
	case strings.HasPrefix(data, "recalcsoil:"):
		b.handleRecalcSoil(ctx, user, chatID, strings.TrimPrefix(data, "recalcsoil:"))
	case strings.HasPrefix(data, "recalcsun:"):
		b.handleRecalcSun(ctx, user, chatID, strings.TrimPrefix(data, "recalcsun:"))
	case strings.HasPrefix(data, "recalcmulch:"):
		b.handleRecalcMulch(ctx, user, chatID, strings.TrimPrefix(data, "recalcmulch:"))
	case strings.HasPrefix(data, "recalc:"):
		b.handleRecalcPick(ctx, user, chatID, strings.TrimPrefix(data, "recalc:"))
	case strings.HasPrefix(data, "citypick:"):
		b.handleCityPick(ctx, user, chatID, strings.TrimPrefix(data, "citypick:"))
	case data == "interval:accept":
		state := b.state(user.TelegramID)
		if state.step == stepAddIntervalDecision && state.baseInterval != nil {
			b.askPlacement(state, chatID)
			slog.Info("add flow: interval accepted", "user", user.TelegramID, "interval", *state.baseInterval)
		}
	case data == "interval:edit":
		state := b.state(user.TelegramID)
		if state.step == stepAddIntervalDecision {
			state.baseInterval = nil
			b.askPlacement(state, chatID)
			slog.Info("add flow: interval switched to manual", "user", user.TelegramID)
		}
	case strings.HasPrefix(data, "placement:"):
		b.handlePlacement(user, chatID, strings.TrimPrefix(data, "placement:"))
	case strings.HasPrefix(data, "soil:"):
		b.handleSoil(user, chatID, strings.TrimPrefix(data, "soil:"))
	case strings.HasPrefix(data, "sun:"):
		b.handleSun(user, chatID, strings.TrimPrefix(data, "sun:"))
	case strings.HasPrefix(data, "mulch:"):
		b.handleMulch(user, chatID, strings.TrimPrefix(data, "mulch:"))
	case strings.HasPrefix(data, "perennial:"):
		b.handlePerennial(user, chatID, strings.TrimPrefix(data, "perennial:"))
	case strings.HasPrefix(data, "winterpause:"):
		b.handleWinterPause(user, chatID, strings.TrimPrefix(data, "winterpause:"))
	case data == "type:accept":
		state := b.state(user.TelegramID)
		if state.step == stepAddTypeDecision && state.suggestedType != nil {
			state.plantType = state.suggestedType
			slog.Info("add flow: type accepted", "user", user.TelegramID, "type", *state.plantType)
			b.finishAddPlant(ctx, user, chatID, state)
		}
	case data == "type:edit":
		state := b.state(user.TelegramID)
		if state.step == stepAddTypeDecision {
			state.step = stepAddType
			b.sendWithMarkup(chatID, "Выбери тип растения вручную:", typeKeyboard())
			slog.Info("add flow: type switched to manual", "user", user.TelegramID)
		}
	case strings.HasPrefix(data, "type:"):
		b.handleTypePick(ctx, user, chatID, strings.TrimPrefix(data, "type:"))
	}
}

// ownedPlant loads a plant and checks it belongs to the user. A nil return
// means the caller was already answered.
func (b *Bot) ownedPlant(ctx context.Context, user *store.User, chatID int64, plantID int64) *store.Plant {
	plant, err := b.store.GetPlant(ctx, plantID)
	if err != nil {
		slog.Error("failed to load plant", "plant_id", plantID, "err", err)
		b.sendText(chatID, "Растение не найдено")
		return nil
	}
	if plant == nil {
		b.sendText(chatID, "Растение не найдено")
		return nil
	}
	if plant.UserID != user.ID {
		b.sendText(chatID, "Это растение принадлежит другому пользователю.")
		return nil
	}
	return plant
}

func (b *Bot) handleWatered(ctx context.Context, user *store.User, chatID int64, raw string) {
	plantID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}
	plant := b.ownedPlant(ctx, user, chatID, plantID)
	if plant == nil {
		return
	}

	rec, err := b.engine.Recommend(ctx, plant, user)
	if err != nil {
		slog.Error("failed to recommend", "plant_id", plant.ID, "err", err)
		b.sendText(chatID, "Не получилось рассчитать рекомендацию, но полив отмечу.")
		rec = nil
	}
	w := b.weather.Current(ctx, user.City, user.CityLat, user.CityLon)

	today := time.Now()
	if _, err := b.store.UpdatePlant(ctx, &store.UpdatePlant{
		ID:                    plant.ID,
		LastWateredDate:       &today,
		ClearLastReminderDate: true,
	}); err != nil {
		slog.Error("failed to update plant", "plant_id", plant.ID, "err", err)
		return
	}

	logEntry := &store.WateringLog{PlantID: plant.ID, WateredAt: today}
	if rec != nil {
		logEntry.RecommendedIntervalDays = &rec.IntervalDays
		logEntry.RecommendedWaterLiters = &rec.WaterLiters
	}
	if w != nil {
		logEntry.TemperatureC = &w.TemperatureC
		logEntry.HumidityPercent = &w.HumidityPercent
	}
	if _, err := b.store.CreateWateringLog(ctx, logEntry); err != nil {
		slog.Error("failed to create watering log", "plant_id", plant.ID, "err", err)
	}
	b.sendText(chatID, "✅ Полив отмечен: \""+plant.Name+"\"")
}

func (b *Bot) handleDelete(ctx context.Context, user *store.User, chatID int64, raw string) {
	plantID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}
	plant := b.ownedPlant(ctx, user, chatID, plantID)
	if plant == nil {
		return
	}
	if err := b.store.DeletePlant(ctx, plant.ID); err != nil {
		slog.Error("failed to delete plant", "plant_id", plant.ID, "err", err)
		b.sendText(chatID, "Не получилось удалить растение.")
		return
	}
	b.sendText(chatID, "🗑 Удалено: \""+plant.Name+"\"")
	slog.Info("plant deleted", "user", user.TelegramID, "plant_id", plant.ID, "name", plant.Name)
}

// add flow callbacks

func (b *Bot) handlePlacement(user *store.User, chatID int64, raw string) {
	state := b.state(user.TelegramID)
	if state.step != stepAddPlacement {
		return
	}
	switch store.Placement(raw) {
	case store.PlacementOutdoor:
		placement := store.PlacementOutdoor
		state.placement = &placement
		state.step = stepAddOutdoorArea
		b.sendTextWithCancel(chatID, "Укажи площадь посадки в м² (например: 3.5)")
	case store.PlacementIndoor:
		placement := store.PlacementIndoor
		state.placement = &placement
		state.outdoorAreaM2 = nil
		state.step = stepAddPot
		b.sendTextWithCancel(chatID, "Введи объём горшка в литрах (например: 2.5)")
	default:
		b.sendText(chatID, "Не распознал тип размещения.\nНажми одну из кнопок.")
		return
	}
	slog.Info("add flow: placement accepted", "user", user.TelegramID, "placement", raw)
}

func parseSoilType(raw string) (store.SoilType, bool) {
	switch store.SoilType(raw) {
	case store.SoilSandy, store.SoilLoamy, store.SoilClay:
		return store.SoilType(raw), true
	}
	return "", false
}

func parseSunExposure(raw string) (store.SunExposure, bool) {
	switch store.SunExposure(raw) {
	case store.SunFull, store.SunPartialShade, store.SunShade:
		return store.SunExposure(raw), true
	}
	return "", false
}

func (b *Bot) handleSoil(user *store.User, chatID int64, raw string) {
	state := b.state(user.TelegramID)
	if state.step != stepAddOutdoorSoil {
		return
	}
	soil, ok := parseSoilType(raw)
	if !ok {
		b.sendText(chatID, "Не распознал тип почвы.\nНажми кнопку из списка.")
		return
	}
	state.soilType = &soil
	state.step = stepAddOutdoorSun
	b.sendWithMarkup(chatID, "Освещенность участка:", sunKeyboard())
}

func (b *Bot) handleSun(user *store.User, chatID int64, raw string) {
	state := b.state(user.TelegramID)
	if state.step != stepAddOutdoorSun {
		return
	}
	sun, ok := parseSunExposure(raw)
	if !ok {
		b.sendText(chatID, "Не распознал освещенность.\nНажми кнопку из списка.")
		return
	}
	state.sunExposure = &sun
	state.step = stepAddOutdoorMulch
	b.sendWithMarkup(chatID, "Есть мульча?", yesNoKeyboard("mulch"))
}

func (b *Bot) handleMulch(user *store.User, chatID int64, raw string) {
	state := b.state(user.TelegramID)
	if state.step != stepAddOutdoorMulch {
		return
	}
	mulched := raw == "yes"
	state.mulched = &mulched
	state.step = stepAddOutdoorPerennial
	b.sendWithMarkup(chatID, "Это многолетнее растение?", yesNoKeyboard("perennial"))
}

func (b *Bot) handlePerennial(user *store.User, chatID int64, raw string) {
	state := b.state(user.TelegramID)
	if state.step != stepAddOutdoorPerennial {
		return
	}
	perennial := raw == "yes"
	state.perennial = &perennial
	if perennial {
		state.step = stepAddOutdoorWinterPause
		b.sendWithMarkup(chatID, "Включить зимнюю паузу полива?", yesNoKeyboard("winterpause"))
		return
	}
	pause := false
	state.winterPause = &pause
	b.continueAfterOutdoorMeta(state, chatID)
}

func (b *Bot) handleWinterPause(user *store.User, chatID int64, raw string) {
	state := b.state(user.TelegramID)
	if state.step != stepAddOutdoorWinterPause {
		return
	}
	pause := raw == "yes"
	state.winterPause = &pause
	b.continueAfterOutdoorMeta(state, chatID)
}

func (b *Bot) handleTypePick(ctx context.Context, user *store.User, chatID int64, raw string) {
	state := b.state(user.TelegramID)
	if state.step != stepAddType {
		return
	}
	switch store.PlantType(raw) {
	case store.PlantTypeSucculent, store.PlantTypeTropical, store.PlantTypeFern,
		store.PlantTypeConifer, store.PlantTypeDefault:
		plantType := store.PlantType(raw)
		state.plantType = &plantType
		b.finishAddPlant(ctx, user, chatID, state)
	default:
		slog.Warn("unknown plant type callback", "data", raw)
		b.sendText(chatID, "Не распознал тип растения.\nВыбери вариант кнопкой.")
	}
}

// recalc flow

func (b *Bot) handleRecalcPick(ctx context.Context, user *store.User, chatID int64, raw string) {
	plantID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		b.sendText(chatID, "Некорректный идентификатор растения. Повтори /recalc")
		return
	}
	plant := b.ownedPlant(ctx, user, chatID, plantID)
	if plant == nil {
		return
	}
	state := b.state(user.TelegramID)
	state.reset()
	state.recalcPlantID = &plantID
	state.step = stepRecalcWaitCity
	b.sendWithMarkup(chatID,
		"Уточним данные для пересчета \""+plant.Name+"\".\n"+
			"1) Укажи точный город/населенный пункт для погоды.\n"+
			"Можно оставить текущий город кнопкой ниже.",
		recalcCityKeyboard(user))
}

func (b *Bot) handleRecalcCurrentCity(ctx context.Context, user *store.User, chatID int64) {
	state := b.state(user.TelegramID)
	if state.recalcPlantID == nil {
		b.sendText(chatID, "Сначала выбери растение через /recalc")
		return
	}
	if strings.TrimSpace(user.City) == "" {
		state.step = stepRecalcWaitCity
		b.sendTextWithCancel(chatID, "Текущий город не задан. Введи город текстом.")
		return
	}
	b.continueRecalcAfterCity(ctx, user, chatID, state)
}

func (b *Bot) handleRecalcSoil(ctx context.Context, user *store.User, chatID int64, raw string) {
	state := b.state(user.TelegramID)
	if state.step != stepRecalcSoil || state.recalcPlantID == nil {
		return
	}
	soil, ok := parseSoilType(raw)
	if !ok {
		b.sendText(chatID, "Не распознал тип почвы. Выбери кнопку.")
		return
	}
	state.soilType = &soil
	state.step = stepRecalcSun
	b.sendWithMarkup(chatID, "3) Освещенность участка:", recalcSunKeyboard())
}

func (b *Bot) handleRecalcSun(ctx context.Context, user *store.User, chatID int64, raw string) {
	state := b.state(user.TelegramID)
	if state.step != stepRecalcSun || state.recalcPlantID == nil {
		return
	}
	sun, ok := parseSunExposure(raw)
	if !ok {
		b.sendText(chatID, "Не распознал освещенность. Выбери кнопку.")
		return
	}
	state.sunExposure = &sun
	state.step = stepRecalcMulch
	b.sendWithMarkup(chatID, "4) Есть мульча?", recalcMulchKeyboard())
}

func (b *Bot) handleRecalcMulch(ctx context.Context, user *store.User, chatID int64, raw string) {
	state := b.state(user.TelegramID)
	if state.step != stepRecalcMulch || state.recalcPlantID == nil {
		return
	}
	mulched := raw == "yes"
	state.mulched = &mulched
	b.finishRecalc(ctx, user, chatID, state)
}

func (b *Bot) resolveCityForRecalc(ctx context.Context, user *store.User, chatID int64, query string) {
	if strings.TrimSpace(query) == "" {
		b.sendTextWithCancel(chatID, "Введи город или нажми кнопку оставить текущий город.")
		return
	}
	options := b.weather.ResolveCityOptions(ctx, query, 5)
	if len(options) == 0 {
		b.sendTextWithCancel(chatID, "Не нашел город. Попробуй формат: Вартемяги или Вартемяги, RU")
		return
	}

	state := b.state(user.TelegramID)
	if len(options) == 1 {
		b.applySelectedCity(ctx, user, options[0])
		b.sendText(chatID, "🌆 Локация для пересчета: "+options[0].DisplayName)
		b.continueRecalcAfterCity(ctx, user, chatID, state)
		return
	}

	b.mu.Lock()
	b.cityPicks[user.TelegramID] = options
	b.mu.Unlock()
	state.step = stepRecalcWaitCityChoose
	b.sendCityChoices(chatID, options)
}

func (b *Bot) continueRecalcAfterCity(ctx context.Context, user *store.User, chatID int64, state *conversationState) {
	plant, err := b.store.GetPlant(ctx, *state.recalcPlantID)
	if err != nil || plant == nil || plant.UserID != user.ID {
		state.reset()
		b.sendText(chatID, "Растение не найдено.")
		return
	}

	if plant.IsOutdoor() {
		state.step = stepRecalcSoil
		b.sendWithMarkup(chatID, "2) Уточни тип почвы:", recalcSoilKeyboard())
		return
	}
	b.finishRecalc(ctx, user, chatID, state)
}

func (b *Bot) finishRecalc(ctx context.Context, user *store.User, chatID int64, state *conversationState) {
	plant, err := b.store.GetPlant(ctx, *state.recalcPlantID)
	if err != nil || plant == nil || plant.UserID != user.ID {
		state.reset()
		b.sendText(chatID, "Растение не найдено.")
		return
	}

	update := &store.UpdatePlant{ID: plant.ID}
	if state.soilType != nil {
		update.SoilType = state.soilType
	}
	if state.sunExposure != nil {
		update.SunExposure = state.sunExposure
	}
	if state.mulched != nil {
		update.Mulched = state.mulched
	}
	plant, err = b.store.UpdatePlant(ctx, update)
	if err != nil {
		slog.Error("failed to update plant", "plant_id", update.ID, "err", err)
		b.sendText(chatID, "Не получилось сохранить уточнения.")
		return
	}

	rec, err := b.engine.Recommend(ctx, plant, user)
	if err != nil {
		slog.Error("failed to recommend", "plant_id", plant.ID, "err", err)
		b.sendText(chatID, "Не получилось пересчитать рекомендацию.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🔄 Пересчет готов для \"" + plant.Name + "\"\n")
	sb.WriteString("• Интервал: " + formatDays(rec.IntervalDays) + "\n")
	sb.WriteString("• Объем воды: " + formatWaterAmount(plant, rec, time.Now()))

	minimum := (plant.IsOutdoor() && rec.WaterLiters <= 0.5) ||
		(!plant.IsOutdoor() && rec.WaterLiters <= 0.2)
	if minimum {
		sb.WriteString("\n\n⚠️ Получилось минимальное значение. Уточни локацию/условия и повтори /recalc.")
	}

	b.sendText(chatID, sb.String())
	slog.Info("recalc finished", "user", user.TelegramID, "plant_id", plant.ID,
		"placement", plant.Placement, "interval", rec.IntervalDays, "water", rec.WaterLiters)
	state.reset()
	b.mu.Lock()
	delete(b.cityPicks, user.TelegramID)
	b.mu.Unlock()
}

// city selection

func (b *Bot) sendCityInputPrompt(chatID int64) {
	msg := tgbotapi.NewMessage(chatID,
		"Введи город или отправь геопозицию.\nЯ подберу точный населенный пункт даже при нескольких совпадениях.")
	msg.ReplyMarkup = cityInputKeyboard()
	b.sendMessage(msg)
}

func (b *Bot) sendCityChoices(chatID int64, options []weather.CityOption) {
	var sb strings.Builder
	sb.WriteString("Нашел несколько вариантов. Выбери нужный:\n")
	for i, opt := range options {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, opt.DisplayName))
	}
	b.sendWithMarkup(chatID, sb.String(), cityPickKeyboard(len(options)))
}

func (b *Bot) resolveAndSetCity(ctx context.Context, user *store.User, chatID int64, query string) {
	if strings.TrimSpace(query) == "" {
		b.sendTextWithCancel(chatID, "Введи название города или населенного пункта.")
		return
	}
	options := b.weather.ResolveCityOptions(ctx, query, 5)
	if len(options) == 0 {
		b.sendTextWithCancel(chatID, "Не нашел город по этому запросу.\nПопробуй формат: \"Вартемяги\" или \"Вартемяги, RU\".")
		return
	}

	if len(options) == 1 {
		b.applySelectedCity(ctx, user, options[0])
		b.state(user.TelegramID).reset()
		b.sendText(chatID, "🌆 Город сохранен: "+options[0].DisplayName)
		return
	}

	b.mu.Lock()
	b.cityPicks[user.TelegramID] = options
	b.mu.Unlock()
	b.state(user.TelegramID).step = stepSetCityChoose
	b.sendCityChoices(chatID, options)
}

func (b *Bot) handleCityPick(ctx context.Context, user *store.User, chatID int64, raw string) {
	b.mu.Lock()
	options := b.cityPicks[user.TelegramID]
	b.mu.Unlock()
	if len(options) == 0 {
		b.sendText(chatID, "Список вариантов устарел.\nВведи /setcity снова.")
		return
	}
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 || idx >= len(options) {
		b.sendText(chatID, "Не удалось выбрать город.\nВведи /setcity снова.")
		return
	}
	selected := options[idx]
	b.applySelectedCity(ctx, user, selected)
	b.mu.Lock()
	delete(b.cityPicks, user.TelegramID)
	b.mu.Unlock()

	state := b.state(user.TelegramID)
	if state.step == stepRecalcWaitCityChoose && state.recalcPlantID != nil {
		b.sendText(chatID, "🌆 Локация для пересчета: "+selected.DisplayName)
		b.continueRecalcAfterCity(ctx, user, chatID, state)
		return
	}
	state.reset()
	b.sendText(chatID, "🌆 Город сохранен: "+selected.DisplayName)
}

func (b *Bot) handleLocationMessage(ctx context.Context, user *store.User, message *tgbotapi.Message) {
	location := message.Location
	if location == nil {
		return
	}
	city := weather.CityOption{
		DisplayName: fmt.Sprintf("%.5f, %.5f", location.Latitude, location.Longitude),
		Lat:         location.Latitude,
		Lon:         location.Longitude,
	}
	if resolved, err := b.weather.ResolveCityByCoordinates(ctx, location.Latitude, location.Longitude); err == nil && resolved != nil {
		city = *resolved
	}
	b.applySelectedCity(ctx, user, city)
	b.mu.Lock()
	delete(b.cityPicks, user.TelegramID)
	b.mu.Unlock()

	state := b.state(user.TelegramID)
	chatID := message.Chat.ID
	if (state.step == stepRecalcWaitCity || state.step == stepRecalcWaitCityChoose) && state.recalcPlantID != nil {
		msg := tgbotapi.NewMessage(chatID, "📍 Геопозиция получена.\n🌆 Локация для пересчета: "+city.DisplayName)
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		b.sendMessage(msg)
		b.continueRecalcAfterCity(ctx, user, chatID, state)
		return
	}

	state.reset()
	msg := tgbotapi.NewMessage(chatID, "📍 Геопозиция получена.\n🌆 Город сохранен: "+city.DisplayName)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	b.sendMessage(msg)
}

// applySelectedCity persists the city choice and refreshes the in-memory
// user so the rest of the request sees it.
func (b *Bot) applySelectedCity(ctx context.Context, user *store.User, city weather.CityOption) {
	lat, lon := city.Lat, city.Lon
	updated, err := b.store.UpdateUser(ctx, &store.UpdateUser{
		ID:              user.ID,
		City:            &city.DisplayName,
		CityDisplayName: &city.DisplayName,
		CityLat:         &lat,
		CityLon:         &lon,
	})
	if err != nil {
		slog.Error("failed to save user city", "user", user.TelegramID, "err", err)
		return
	}
	*user = *updated
}
