package bot

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/floralog/floralog/store"
	"github.com/floralog/floralog/weather"
)

type fakeAPI struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	msg, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok, "last sent chattable is not a message")
	return msg.Text
}

func newTestBot() (*Bot, *fakeAPI) {
	api := &fakeAPI{}
	b := &Bot{
		api:       api,
		states:    make(map[int64]*conversationState),
		cityPicks: make(map[int64][]weather.CityOption),
		userLocks: make(map[int64]*sync.Mutex),
	}
	return b, api
}

func testUser() *store.User {
	return &store.User{ID: 1, TelegramID: 42}
}

func TestParseInt(t *testing.T) {
	v, ok := parseInt(" 7 ")
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = parseInt("семь")
	assert.False(t, ok)
}

func TestParseFloatAcceptsComma(t *testing.T) {
	v, ok := parseFloat("2,5")
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	_, ok = parseFloat("два")
	assert.False(t, ok)
}

func TestParseSoilType(t *testing.T) {
	soil, ok := parseSoilType("CLAY")
	assert.True(t, ok)
	assert.Equal(t, store.SoilClay, soil)

	_, ok = parseSoilType("LAVA")
	assert.False(t, ok)
}

func TestParseSunExposure(t *testing.T) {
	sun, ok := parseSunExposure("PARTIAL_SHADE")
	assert.True(t, ok)
	assert.Equal(t, store.SunPartialShade, sun)

	_, ok = parseSunExposure("MOONLIGHT")
	assert.False(t, ok)
}

func TestPlacementIndoorLeadsToPotStep(t *testing.T) {
	b, api := newTestBot()
	user := testUser()
	state := b.state(user.TelegramID)
	state.step = stepAddPlacement

	b.handlePlacement(user, 100, "INDOOR")

	assert.Equal(t, stepAddPot, state.step)
	require.NotNil(t, state.placement)
	assert.Equal(t, store.PlacementIndoor, *state.placement)
	assert.Contains(t, api.lastText(t), "объём горшка")
}

func TestPlacementOutdoorLeadsToAreaStep(t *testing.T) {
	b, api := newTestBot()
	user := testUser()
	state := b.state(user.TelegramID)
	state.step = stepAddPlacement

	b.handlePlacement(user, 100, "OUTDOOR")

	assert.Equal(t, stepAddOutdoorArea, state.step)
	assert.Contains(t, api.lastText(t), "площадь")
}

func TestPlacementIgnoredOutsideFlow(t *testing.T) {
	b, api := newTestBot()
	user := testUser()

	b.handlePlacement(user, 100, "INDOOR")

	assert.Equal(t, stepNone, b.state(user.TelegramID).step)
	assert.Empty(t, api.sent)
}

func TestPotStepRejectsBadInput(t *testing.T) {
	b, api := newTestBot()
	user := testUser()
	state := b.state(user.TelegramID)
	state.step = stepAddPot

	b.handleConversation(context.Background(), user, 100, "минус два")

	assert.Equal(t, stepAddPot, state.step)
	assert.Nil(t, state.potVolume)
	assert.Contains(t, api.lastText(t), "Не смог распознать объём")
}

func TestPotStepWithoutIntervalAsksManualInterval(t *testing.T) {
	b, api := newTestBot()
	user := testUser()
	state := b.state(user.TelegramID)
	state.step = stepAddPot

	b.handleConversation(context.Background(), user, 100, "2,5")

	require.NotNil(t, state.potVolume)
	assert.Equal(t, 2.5, *state.potVolume)
	assert.Equal(t, stepAddInterval, state.step)
	assert.Contains(t, api.lastText(t), "базовый интервал")
}

func TestOutdoorAreaDefaultsPotVolume(t *testing.T) {
	b, _ := newTestBot()
	user := testUser()
	state := b.state(user.TelegramID)
	state.step = stepAddOutdoorArea

	b.handleConversation(context.Background(), user, 100, "3.5")

	require.NotNil(t, state.outdoorAreaM2)
	assert.Equal(t, 3.5, *state.outdoorAreaM2)
	require.NotNil(t, state.potVolume)
	assert.Equal(t, 1.0, *state.potVolume)
	assert.Equal(t, stepAddOutdoorSoil, state.step)
}

func TestOutdoorMetaChain(t *testing.T) {
	b, api := newTestBot()
	user := testUser()
	state := b.state(user.TelegramID)
	interval := 9
	state.baseInterval = &interval
	state.step = stepAddOutdoorSoil

	b.handleSoil(user, 100, "SANDY")
	assert.Equal(t, stepAddOutdoorSun, state.step)

	b.handleSun(user, 100, "SHADE")
	assert.Equal(t, stepAddOutdoorMulch, state.step)

	b.handleMulch(user, 100, "no")
	assert.Equal(t, stepAddOutdoorPerennial, state.step)
	require.NotNil(t, state.mulched)
	assert.False(t, *state.mulched)

	b.handlePerennial(user, 100, "yes")
	assert.Equal(t, stepAddOutdoorWinterPause, state.step)
	assert.Contains(t, api.lastText(t), "зимнюю паузу")

	b.handleWinterPause(user, 100, "yes")
	require.NotNil(t, state.winterPause)
	assert.True(t, *state.winterPause)
	// interval already known, so the flow moved on to type selection
	assert.Equal(t, stepAddType, state.step)
}

func TestAnnualSkipsWinterPauseQuestion(t *testing.T) {
	b, _ := newTestBot()
	user := testUser()
	state := b.state(user.TelegramID)
	state.step = stepAddOutdoorPerennial

	b.handlePerennial(user, 100, "no")

	require.NotNil(t, state.winterPause)
	assert.False(t, *state.winterPause)
	assert.Equal(t, stepAddInterval, state.step)
}

func TestSoilStepRejectsUnknownValue(t *testing.T) {
	b, api := newTestBot()
	user := testUser()
	state := b.state(user.TelegramID)
	state.step = stepAddOutdoorSoil

	b.handleSoil(user, 100, "GRAVEL")

	assert.Equal(t, stepAddOutdoorSoil, state.step)
	assert.Nil(t, state.soilType)
	assert.Contains(t, api.lastText(t), "Не распознал тип почвы")
}

func TestCancelFlowResetsState(t *testing.T) {
	b, api := newTestBot()
	user := testUser()
	state := b.state(user.TelegramID)
	state.step = stepAddOutdoorSun
	name := "Роза"
	state.name = name
	b.cityPicks[user.TelegramID] = []weather.CityOption{{DisplayName: "Казань"}}

	b.cancelFlow(user, 100)

	assert.Equal(t, stepNone, state.step)
	assert.Empty(t, state.name)
	assert.NotContains(t, b.cityPicks, user.TelegramID)
	assert.Contains(t, api.lastText(t), "действие отменено")
}

func TestConversationWithoutFlowSuggestsAdd(t *testing.T) {
	b, api := newTestBot()
	user := testUser()

	b.handleConversation(context.Background(), user, 100, "привет")

	assert.Contains(t, api.lastText(t), "/add")
}
