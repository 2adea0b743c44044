package bot

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/floralog/floralog/store"
)

func cancelButton() tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData("Отмена", "cancel")
}

func cancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(cancelButton()))
}

func wateredButton(plantID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Полито", "watered:"+strconv.FormatInt(plantID, 10)),
	))
}

func listWaterKeyboard(plants []*store.Plant) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(plants))
	for _, plant := range plants {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Полито: "+plant.Name, "watered:"+strconv.FormatInt(plant.ID, 10)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func deleteKeyboard(plants []*store.Plant) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(plants)+1)
	for _, plant := range plants {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Удалить: "+plant.Name, "delete:"+strconv.FormatInt(plant.ID, 10)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(cancelButton()))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func recalcPlantKeyboard(plants []*store.Plant) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(plants)+1)
	for _, plant := range plants {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Пересчитать: "+plant.Name, "recalc:"+strconv.FormatInt(plant.ID, 10)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(cancelButton()))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func recalcCityKeyboard(user *store.User) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if user.City != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Оставить текущий город ("+user.City+")", "recalc:city:current"),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(cancelButton()))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func intervalDecisionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Оставить", "interval:accept"),
			tgbotapi.NewInlineKeyboardButtonData("Изменить", "interval:edit"),
		),
		tgbotapi.NewInlineKeyboardRow(cancelButton()),
	)
}

func typeDecisionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Оставить", "type:accept"),
			tgbotapi.NewInlineKeyboardButtonData("Изменить", "type:edit"),
		),
		tgbotapi.NewInlineKeyboardRow(cancelButton()),
	)
}

func placementKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Домашнее", "placement:INDOOR"),
			tgbotapi.NewInlineKeyboardButtonData("Уличное", "placement:OUTDOOR"),
		),
		tgbotapi.NewInlineKeyboardRow(cancelButton()),
	)
}

func soilKeyboard() tgbotapi.InlineKeyboardMarkup {
	return soilKeyboardWithPrefix("soil")
}

func recalcSoilKeyboard() tgbotapi.InlineKeyboardMarkup {
	return soilKeyboardWithPrefix("recalcsoil")
}

func soilKeyboardWithPrefix(prefix string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Песчаный", prefix+":SANDY"),
			tgbotapi.NewInlineKeyboardButtonData("Суглинистый", prefix+":LOAMY"),
			tgbotapi.NewInlineKeyboardButtonData("Глинистый", prefix+":CLAY"),
		),
		tgbotapi.NewInlineKeyboardRow(cancelButton()),
	)
}

func sunKeyboard() tgbotapi.InlineKeyboardMarkup {
	return sunKeyboardWithPrefix("sun")
}

func recalcSunKeyboard() tgbotapi.InlineKeyboardMarkup {
	return sunKeyboardWithPrefix("recalcsun")
}

func sunKeyboardWithPrefix(prefix string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Полное солнце", prefix+":FULL_SUN"),
			tgbotapi.NewInlineKeyboardButtonData("Полутень", prefix+":PARTIAL_SHADE"),
			tgbotapi.NewInlineKeyboardButtonData("Тень", prefix+":SHADE"),
		),
		tgbotapi.NewInlineKeyboardRow(cancelButton()),
	)
}

func recalcMulchKeyboard() tgbotapi.InlineKeyboardMarkup {
	return yesNoKeyboard("recalcmulch")
}

func yesNoKeyboard(prefix string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Да", prefix+":yes"),
			tgbotapi.NewInlineKeyboardButtonData("Нет", prefix+":no"),
		),
		tgbotapi.NewInlineKeyboardRow(cancelButton()),
	)
}

func typeKeyboard() tgbotapi.InlineKeyboardMarkup {
	types := []store.PlantType{
		store.PlantTypeSucculent,
		store.PlantTypeTropical,
		store.PlantTypeFern,
		store.PlantTypeConifer,
		store.PlantTypeDefault,
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(types)+1)
	for _, t := range types {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(t.Title(), "type:"+string(t)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(cancelButton()))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cityPickKeyboard(count int) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, count+1)
	for i := 0; i < count; i++ {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(i+1)+". Выбрать", "citypick:"+strconv.Itoa(i)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(cancelButton()))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func clearCacheConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Да, очистить", "clearcache:confirm"),
			tgbotapi.NewInlineKeyboardButtonData("Отмена", "clearcache:cancel"),
		),
	)
}

// cityInputKeyboard is a reply keyboard with a location-request button for
// the /setcity prompt.
func cityInputKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation("📍 Отправить геопозицию")),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("/cancel")),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
