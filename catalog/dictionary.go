package catalog

import "strings"

// ruToEn maps common Russian houseplant names to the English names the
// catalog providers index. Checked before any network translation.
var ruToEn = map[string]string{
	"абутилон":                 "abutilon",
	"аглаонема":                "aglaonema",
	"адениум":                  "adenium",
	"адиантум":                 "maidenhair fern",
	"азалия":                   "azalea",
	"алламанда":                "allamanda",
	"алоэ":                     "aloe",
	"алоэ вера":                "aloe vera",
	"альтернантера":            "alternanthera",
	"амариллис":                "amaryllis",
	"антуриум":                 "anthurium",
	"аспарагус":                "asparagus fern",
	"аспидистра":               "aspidistra",
	"аукуба":                   "aucuba",
	"ахименес":                 "achimenes",
	"бальзамин":                "impatiens",
	"банан декоративный":       "banana plant",
	"бегония":                  "begonia",
	"бегония рекс":             "rex begonia",
	"бильбергия":               "billbergia",
	"бокарнея":                 "ponytail palm",
	"бугенвиллия":              "bougainvillea",
	"вашингтония":              "washingtonia palm",
	"венерина мухоловка":       "venus flytrap",
	"вриезия":                  "vriesea",
	"гардения":                 "gardenia",
	"герань":                   "geranium",
	"гибискус":                 "hibiscus",
	"гименокаллис":             "hymenocallis",
	"гипоэстес":                "hypoestes",
	"глоксиния":                "gloxinia",
	"гузмания":                 "guzmania",
	"декабрист":                "christmas cactus",
	"дендробиум":               "dendrobium",
	"дионея":                   "venus flytrap",
	"дипладения":               "mandevilla",
	"диффенбахия":              "dieffenbachia",
	"долларовое дерево":        "zamioculcas",
	"драцена":                  "dracaena",
	"драцена маргината":        "dracaena marginata",
	"замиокулькас":             "zamioculcas",
	"замиокулькас замиелистный": "zamioculcas zamiifolia",
	"зебрина":                  "tradescantia zebrina",
	"зигокактус":               "christmas cactus",
	"ипомея батат":             "ornamental sweet potato",
	"каладиум":                 "caladium",
	"каланхоэ":                 "kalanchoe",
	"калина комнатная":         "viburnum",
	"каллисия":                 "callisia",
	"каллизия":                 "callisia",
	"калла":                    "calla lily",
	"камелия":                  "camellia",
	"камнеломка":               "saxifraga",
	"кактус":                   "cactus",
	"кактус шлюмбергера":       "christmas cactus",
	"каттлея":                  "cattleya",
	"колеус":                   "coleus",
	"колерия":                  "kohleria",
	"кордилина":                "cordyline",
	"кофе арабика":             "coffee plant",
	"крассула":                 "jade plant",
	"кротон":                   "croton",
	"кумкват":                  "kumquat",
	"лавр":                     "bay laurel",
	"лимон комнатный":          "lemon tree",
	"литопс":                   "lithops",
	"мандарин комнатный":       "mandarin tree",
	"маранта":                  "maranta",
	"мединилла":                "medinilla",
	"мирт":                     "myrtle",
	"молочай":                  "euphorbia",
	"монстера":                 "monstera",
	"монстера делициоза":       "monstera deliciosa",
	"нефролепис":               "nephrolepis fern",
	"нолина":                   "ponytail palm",
	"олеандр":                  "oleander",
	"опунция":                  "prickly pear cactus",
	"орхидея":                  "orchid",
	"орхидея фаленопсис":       "phalaenopsis",
	"орхидея дендробиум":       "dendrobium",
	"пальма арека":             "areca palm",
	"пальма хамедорея":         "parlor palm",
	"папоротник":               "fern",
	"пассифлора":               "passionflower",
	"пахира":                   "money tree",
	"пахиподиум":               "pachypodium",
	"пеларгония":               "geranium",
	"пеперомия":                "peperomia",
	"перец декоративный":       "ornamental pepper",
	"плектрантус":              "plectranthus",
	"плющ":                     "ivy",
	"плющ хедера":              "english ivy",
	"подокарпус":               "podocarpus",
	"потос":                    "pothos",
	"примула":                  "primrose",
	"пуансеттия":               "poinsettia",
	"радермахера":              "radermachera",
	"рео":                      "tradescantia spathacea",
	"рипсалис":                 "rhipsalis",
	"роза комнатная":           "mini rose",
	"сансевиерия":              "snake plant",
	"сансевьера":               "snake plant",
	"сансевиерия трифасциата":  "sansevieria trifasciata",
	"сенполия":                 "african violet",
	"сингониум":                "syngonium",
	"солейролия":               "soleirolia",
	"спатифиллум":              "peace lily",
	"стрелиция":                "bird of paradise",
	"стрептокарпус":            "streptocarpus",
	"суккулент":                "succulent",
	"тилландсия":               "tillandsia",
	"толстянка":                "jade plant",
	"традесканция":             "tradescantia",
	"туя комнатная":            "thuja",
	"узамбарская фиалка":       "african violet",
	"фаленопсис":               "phalaenopsis",
	"фатсия":                   "fatsia",
	"фиалка":                   "violet",
	"фикус":                    "ficus",
	"фикус бенджамина":         "ficus benjamina",
	"фикус каучуконосный":      "rubber plant",
	"филодендрон":              "philodendron",
	"финиковая пальма":         "date palm",
	"фиттония":                 "fittonia",
	"фуксия":                   "fuchsia",
	"хамедорея":                "parlor palm",
	"хамеропс":                 "chamaerops",
	"хавортия":                 "haworthia",
	"хедера":                   "english ivy",
	"хлорофитум":               "chlorophytum",
	"хойя":                     "hoya",
	"хризантема комнатная":     "chrysanthemum",
	"циссус":                   "grape ivy",
	"циперус":                  "papyrus",
	"цитрус":                   "citrus",
	"шеффлера":                 "schefflera",
	"шлюмбергера":              "christmas cactus",
	"эписция":                  "episcia",
	"эпипремнум":               "pothos",
	"эуфорбия":                 "euphorbia",
	"юкка":                     "yucca",
}

// dictionaryTranslate resolves a normalized Russian query through the local
// dictionary: exact match first, then the first entry contained in the query.
func dictionaryTranslate(text string) (string, bool) {
	if direct, ok := ruToEn[text]; ok {
		return direct, true
	}
	for key, value := range ruToEn {
		if strings.Contains(text, key) {
			return value, true
		}
	}
	return "", false
}
