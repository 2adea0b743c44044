package bot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/floralog/floralog/store"
)

// step enumerates the conversation positions of the guided flows.
type step int

const (
	stepNone step = iota
	stepAddName
	stepAddIntervalDecision
	stepAddPlacement
	stepAddPot
	stepAddOutdoorArea
	stepAddOutdoorSoil
	stepAddOutdoorSun
	stepAddOutdoorMulch
	stepAddOutdoorPerennial
	stepAddOutdoorWinterPause
	stepAddInterval
	stepAddTypeDecision
	stepAddType
	stepSetCity
	stepSetCityChoose
	stepRecalcWaitCity
	stepRecalcWaitCityChoose
	stepRecalcSoil
	stepRecalcSun
	stepRecalcMulch
)

// conversationState accumulates the answers of an in-flight flow for one
// user. Zero value means no active flow.
type conversationState struct {
	step          step
	name          string
	potVolume     *float64
	baseInterval  *int
	plantType     *store.PlantType
	suggestedType *store.PlantType
	lookupSource  string
	placement     *store.Placement
	outdoorAreaM2 *float64
	soilType      *store.SoilType
	sunExposure   *store.SunExposure
	mulched       *bool
	perennial     *bool
	winterPause   *bool
	recalcPlantID *int64
}

func (s *conversationState) reset() {
	*s = conversationState{}
}

// state returns the conversation state for a user, creating it on first use.
func (b *Bot) state(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[userID]
	if !ok {
		st = &conversationState{}
		b.states[userID] = st
	}
	return st
}

func (b *Bot) handleConversation(ctx context.Context, user *store.User, chatID int64, text string) {
	state := b.state(user.TelegramID)

	switch state.step {
	case stepAddName:
		state.name = text
		if b.applyAutoInterval(ctx, state, chatID) {
			state.step = stepAddIntervalDecision
		} else {
			b.askPlacement(state, chatID)
		}
		slog.Info("add flow: name accepted", "user", user.TelegramID, "name", state.name)

	case stepAddIntervalDecision:
		b.sendTextWithCancel(chatID, "Выбери интервал кнопками ниже: оставить найденный или изменить вручную.")

	case stepAddPlacement:
		b.sendTextWithCancel(chatID, "Выбери тип размещения: домашнее или уличное.")

	case stepAddPot:
		volume, ok := parseFloat(text)
		if !ok || volume <= 0 {
			b.sendTextWithCancel(chatID, "Не смог распознать объём.\nПример: 2.5")
			return
		}
		state.potVolume = &volume
		if state.baseInterval == nil {
			state.step = stepAddInterval
			b.sendTextWithCancel(chatID, "Введи базовый интервал полива в днях.\nПример: 7")
		} else {
			b.askForTypeDecisionOrManual(state, chatID)
		}
		slog.Info("add flow: pot accepted", "user", user.TelegramID, "pot", volume)

	case stepAddOutdoorArea:
		area, ok := parseFloat(text)
		if !ok || area <= 0 {
			b.sendTextWithCancel(chatID, "Не смог распознать площадь.\nПример: 3.5 (м²)")
			return
		}
		state.outdoorAreaM2 = &area
		pot := 1.0
		state.potVolume = &pot
		state.step = stepAddOutdoorSoil
		b.sendWithMarkup(chatID, "Выбери тип почвы участка:", soilKeyboard())
		slog.Info("add flow: outdoor area accepted", "user", user.TelegramID, "area", area)

	case stepAddOutdoorSoil:
		b.sendTextWithCancel(chatID, "Выбери тип почвы кнопкой.")
	case stepAddOutdoorSun:
		b.sendTextWithCancel(chatID, "Выбери освещенность кнопкой.")
	case stepAddOutdoorMulch:
		b.sendTextWithCancel(chatID, "Есть ли мульча? Выбери кнопкой.")
	case stepAddOutdoorPerennial:
		b.sendTextWithCancel(chatID, "Это многолетнее растение? Выбери кнопкой.")
	case stepAddOutdoorWinterPause:
		b.sendTextWithCancel(chatID, "Включить зимнюю паузу полива? Выбери кнопкой.")

	case stepAddInterval:
		interval, ok := parseInt(text)
		if !ok || interval <= 0 {
			b.sendTextWithCancel(chatID, "Не смог распознать интервал.\nПример: 7")
			return
		}
		state.baseInterval = &interval
		b.askForTypeDecisionOrManual(state, chatID)
		slog.Info("add flow: manual interval set", "user", user.TelegramID, "interval", interval)

	case stepAddTypeDecision:
		b.sendTextWithCancel(chatID, "Подтверди тип растения кнопками ниже: оставить найденный или выбрать вручную.")

	case stepSetCity:
		b.resolveAndSetCity(ctx, user, chatID, text)
	case stepSetCityChoose:
		b.sendTextWithCancel(chatID, "Выбери город кнопкой ниже или отмени действие.")
	case stepRecalcWaitCity:
		b.resolveCityForRecalc(ctx, user, chatID, text)
	case stepRecalcWaitCityChoose:
		b.sendTextWithCancel(chatID, "Выбери город кнопкой ниже или отмени действие.")
	case stepRecalcSoil, stepRecalcSun, stepRecalcMulch:
		b.sendTextWithCancel(chatID, "Используй кнопки ниже для уточнения и пересчета.")

	default:
		b.sendText(chatID, "Чтобы начать, используй /add")
	}
}

func (b *Bot) startAddPlant(user *store.User, chatID int64) {
	state := b.state(user.TelegramID)
	state.reset()
	state.step = stepAddName
	b.sendTextWithCancel(chatID, "🪴 Введи название растения.\nЯ попробую автоматически подобрать интервал полива.")
}

// applyAutoInterval runs the catalog lookup for the just-entered plant
// name. Returns false when no suggestion was found, in which case the flow
// falls back to manual interval entry.
func (b *Bot) applyAutoInterval(ctx context.Context, state *conversationState, chatID int64) bool {
	result, err := b.catalog.SuggestIntervalDays(ctx, state.name)
	if err != nil {
		slog.Warn("catalog lookup failed", "name", state.name, "err", err)
	}
	if result == nil {
		b.sendText(chatID, "Автопоиск интервала не сработал. Попрошу ввести интервал вручную на следующем шаге.")
		slog.Info("auto interval not found", "name", state.name)
		return false
	}

	interval := result.BaseIntervalDays
	state.baseInterval = &interval
	suggested := result.SuggestedType
	state.suggestedType = &suggested
	state.lookupSource = result.Source

	text := "Нашел \"" + result.DisplayName + "\" (" + result.Source + "). Базовый интервал: " +
		strconv.Itoa(result.BaseIntervalDays) + " дн. Оставить или изменить?"
	b.sendWithMarkup(chatID, text, intervalDecisionKeyboard())
	slog.Info("auto interval applied", "name", state.name, "interval", interval, "type", suggested)
	return true
}

func (b *Bot) askPlacement(state *conversationState, chatID int64) {
	state.step = stepAddPlacement
	b.sendWithMarkup(chatID, "📍 Где растет растение?", placementKeyboard())
}

func (b *Bot) continueAfterOutdoorMeta(state *conversationState, chatID int64) {
	if state.baseInterval == nil {
		state.step = stepAddInterval
		b.sendTextWithCancel(chatID, "Введи базовый интервал полива в днях.\nПример: 7")
		return
	}
	b.askForTypeDecisionOrManual(state, chatID)
}

func (b *Bot) askForTypeDecisionOrManual(state *conversationState, chatID int64) {
	if state.suggestedType != nil && *state.suggestedType != store.PlantTypeDefault {
		state.step = stepAddTypeDecision
		b.sendWithMarkup(chatID, "Нашел тип растения: "+state.suggestedType.Title()+". Оставить или изменить?", typeDecisionKeyboard())
		return
	}
	state.step = stepAddType
	b.sendWithMarkup(chatID, "Тип растения:", typeKeyboard())
}

func (b *Bot) finishAddPlant(ctx context.Context, user *store.User, chatID int64, state *conversationState) {
	plantType := store.PlantTypeDefault
	if state.plantType != nil {
		plantType = *state.plantType
	}
	placement := store.PlacementIndoor
	if state.placement != nil {
		placement = *state.placement
	}
	potVolume := 1.0
	if state.potVolume != nil {
		potVolume = *state.potVolume
	}
	interval := 7
	if state.baseInterval != nil {
		interval = *state.baseInterval
	}

	plant := &store.Plant{
		UserID:           user.ID,
		Name:             state.name,
		Type:             plantType,
		Placement:        placement,
		PotVolumeLiters:  potVolume,
		OutdoorAreaM2:    state.outdoorAreaM2,
		SoilType:         state.soilType,
		SunExposure:      state.sunExposure,
		Mulched:          state.mulched != nil && *state.mulched,
		Perennial:        state.perennial != nil && *state.perennial,
		WinterDormancy:   state.winterPause != nil && *state.winterPause,
		BaseIntervalDays: interval,
		LastWateredDate:  time.Now(),
		LookupSource:     state.lookupSource,
	}
	created, err := b.store.CreatePlant(ctx, plant)
	if err != nil {
		slog.Error("failed to create plant", "user", user.TelegramID, "name", state.name, "err", err)
		b.sendText(chatID, "Не получилось сохранить растение. Попробуй ещё раз через /add")
		return
	}
	state.reset()
	b.sendText(chatID, "✅ Растение \""+created.Name+"\" добавлено.")
	slog.Info("plant created", "user", user.TelegramID, "plant_id", created.ID, "name", created.Name,
		"interval", created.BaseIntervalDays, "placement", created.Placement, "type", created.Type)
}

func (b *Bot) cancelFlow(user *store.User, chatID int64) {
	state := b.state(user.TelegramID)
	state.reset()
	b.mu.Lock()
	delete(b.cityPicks, user.TelegramID)
	b.mu.Unlock()

	msg := tgbotapi.NewMessage(chatID, "Ок, действие отменено.\nЕсли нужно, начни заново через /add.")
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	b.sendMessage(msg)
}

func parseInt(text string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseFloat(text string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(text), ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
