package chatcmd

import (
	"github.com/quailyquaily/chatrelay/chat"
	"github.com/quailyquaily/chatrelay/telegram"
)

// Button labels. Routing matches on exact labels, so they live in one place.
const (
	btnHelp     = "Help"
	btnStats    = "Stats"
	btnReset    = "Reset Chat"
	btnFreeChat = "Free Chat"
	btnMode     = "Response Mode"
	btnSettings = "Settings"

	btnTemperature = "Temperature"
	btnModel       = "Model"
	btnMaxTokens   = "Max Tokens"
	btnShowConfig  = "Show Config"

	btnBack         = "Back"
	btnBackSettings = "Back to Settings"
)

// modeButtons maps menu labels to registry modes, in menu order.
var modeButtons = []struct {
	Label string
	Mode  chat.Mode
}{
	{"Formal", chat.ModeFormal},
	{"Casual", chat.ModeCasual},
	{"Academic", chat.ModeAcademic},
	{"Concise", chat.ModeConcise},
	{"Executive", chat.ModeExecutive},
	{"Creative", chat.ModeCreative},
	{"Technical", chat.ModeTechnical},
	{"Simple", chat.ModeSimple},
}

var temperatureButtons = map[string]float64{
	"0.1": 0.1,
	"0.5": 0.5,
	"0.7": 0.7,
	"1.0": 1.0,
	"1.5": 1.5,
	"2.0": 2.0,
}

var tokenButtons = map[string]int{
	"500":  500,
	"1000": 1000,
	"2000": 2000,
	"4000": 4000,
}

func mainKeyboard() *telegram.ReplyKeyboardMarkup {
	return telegram.NewKeyboard(false,
		[]string{btnHelp, btnStats},
		[]string{btnReset, btnFreeChat},
		[]string{btnMode, btnSettings},
	)
}

func modeKeyboard() *telegram.ReplyKeyboardMarkup {
	rows := make([][]string, 0, len(modeButtons)/2+1)
	for i := 0; i < len(modeButtons); i += 2 {
		row := []string{modeButtons[i].Label}
		if i+1 < len(modeButtons) {
			row = append(row, modeButtons[i+1].Label)
		}
		rows = append(rows, row)
	}
	rows = append(rows, []string{btnBack})
	return telegram.NewKeyboard(true, rows...)
}

func settingsKeyboard() *telegram.ReplyKeyboardMarkup {
	return telegram.NewKeyboard(true,
		[]string{btnTemperature, btnModel},
		[]string{btnMaxTokens, btnShowConfig},
		[]string{btnBack},
	)
}

func temperatureKeyboard() *telegram.ReplyKeyboardMarkup {
	return telegram.NewKeyboard(true,
		[]string{"0.1", "0.5", "0.7"},
		[]string{"1.0", "1.5", "2.0"},
		[]string{btnBackSettings},
	)
}

func modelKeyboard() *telegram.ReplyKeyboardMarkup {
	rows := make([][]string, 0, len(chat.AllowedModels)+1)
	for _, m := range chat.AllowedModels {
		rows = append(rows, []string{m})
	}
	rows = append(rows, []string{btnBackSettings})
	return telegram.NewKeyboard(true, rows...)
}

func tokensKeyboard() *telegram.ReplyKeyboardMarkup {
	return telegram.NewKeyboard(true,
		[]string{"500", "1000"},
		[]string{"2000", "4000"},
		[]string{btnBackSettings},
	)
}
