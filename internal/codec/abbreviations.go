package codec

// abbreviation maps an upper-case gemstone name to its three letter code.
type abbreviation struct {
	Name string
	Code string
}

// abbreviationTable is scanned in order for partial matches, so entry order
// decides which code wins when several names overlap. Keys are unique.
var abbreviationTable = []abbreviation{
	// Quartz family
	{"AMETHYST", "AME"},
	{"CITRINE", "CIT"},
	{"AMETRINE", "AMT"},
	{"ROSE QUARTZ", "ROS"},
	{"SMOKY QUARTZ", "SMO"},
	{"CLEAR QUARTZ", "CLQ"},
	{"ROCK CRYSTAL", "RCR"},
	{"RUTILATED QUARTZ", "RUQ"},
	{"TOURMALINATED QUARTZ", "TOQ"},
	{"STRAWBERRY QUARTZ", "STQ"},
	{"LEMON QUARTZ", "LEQ"},
	{"BLUE QUARTZ", "BLQ"},
	{"MILKY QUARTZ", "MIQ"},
	{"PRASIOLITE", "PRA"},
	{"QUARTZ", "QTZ"},
	{"AVENTURINE", "AVE"},
	{"TIGER EYE", "TIG"},
	{"TIGERS EYE", "TIG"},
	{"HAWKS EYE", "HAW"},
	{"CATS EYE", "CAT"},
	{"HERKIMER DIAMOND", "HER"},

	// Chalcedony family
	{"CHALCEDONY", "CHA"},
	{"AGATE", "AGA"},
	{"BLUE LACE AGATE", "BLA"},
	{"MOSS AGATE", "MOS"},
	{"FIRE AGATE", "FAG"},
	{"CRAZY LACE AGATE", "CLA"},
	{"DENDRITIC AGATE", "DEN"},
	{"BOTSWANA AGATE", "BOT"},
	{"ONYX", "ONY"},
	{"SARDONYX", "SAR"},
	{"CARNELIAN", "CAR"},
	{"CHRYSOPRASE", "CHR"},
	{"BLOODSTONE", "BLO"},
	{"HELIOTROPE", "BLO"},
	{"JASPER", "JAS"},
	{"RED JASPER", "RJA"},
	{"PICTURE JASPER", "PJA"},
	{"OCEAN JASPER", "OJA"},
	{"DALMATIAN JASPER", "DJA"},
	{"MOOKAITE", "MOO"},
	{"CHRYSOCOLLA", "CHY"},
	{"PETRIFIED WOOD", "PET"},

	// Corundum
	{"RUBY", "RUB"},
	{"STAR RUBY", "RUB"},
	{"PIGEON BLOOD RUBY", "RUB"},
	{"SAPPHIRE", "SAP"},
	{"BLUE SAPPHIRE", "SAP"},
	{"STAR SAPPHIRE", "SSA"},
	{"YELLOW SAPPHIRE", "YSA"},
	{"PINK SAPPHIRE", "PSA"},
	{"WHITE SAPPHIRE", "WSA"},
	{"PADPARADSCHA", "PAD"},
	{"CORUNDUM", "COR"},

	// Beryl
	{"EMERALD", "EME"},
	{"AQUAMARINE", "AQU"},
	{"MORGANITE", "MOR"},
	{"HELIODOR", "HEL"},
	{"GOSHENITE", "GOS"},
	{"RED BERYL", "RBE"},
	{"BIXBITE", "RBE"},
	{"BERYL", "BER"},

	// Garnet
	{"GARNET", "GAR"},
	{"ALMANDINE", "ALM"},
	{"PYROPE", "PYR"},
	{"RHODOLITE", "RHO"},
	{"SPESSARTINE", "SPE"},
	{"GROSSULAR", "GRO"},
	{"HESSONITE", "HES"},
	{"TSAVORITE", "TSA"},
	{"DEMANTOID", "DEM"},
	{"ANDRADITE", "AND"},
	{"UVAROVITE", "UVA"},
	{"MALAYA GARNET", "MAL"},
	{"MANDARIN GARNET", "MAN"},

	// Tourmaline
	{"TOURMALINE", "TOU"},
	{"BLACK TOURMALINE", "BTO"},
	{"SCHORL", "BTO"},
	{"WATERMELON TOURMALINE", "WTO"},
	{"RUBELLITE", "RBL"},
	{"INDICOLITE", "IND"},
	{"VERDELITE", "VER"},
	{"PARAIBA TOURMALINE", "PAR"},
	{"PARAIBA", "PAR"},
	{"DRAVITE", "DRA"},
	{"ELBAITE", "ELB"},

	// Feldspar
	{"MOONSTONE", "MOS"},
	{"RAINBOW MOONSTONE", "RMO"},
	{"SUNSTONE", "SUN"},
	{"LABRADORITE", "LAB"},
	{"SPECTROLITE", "SPC"},
	{"AMAZONITE", "AMZ"},
	{"ORTHOCLASE", "ORT"},
	{"ANDESINE", "ADS"},

	// Opal
	{"OPAL", "OPA"},
	{"FIRE OPAL", "FOP"},
	{"BLACK OPAL", "BOP"},
	{"BOULDER OPAL", "BOU"},
	{"ETHIOPIAN OPAL", "EOP"},
	{"WHITE OPAL", "WOP"},
	{"CRYSTAL OPAL", "COP"},
	{"PINK OPAL", "POP"},

	// Diamond and carbon
	{"DIAMOND", "DIA"},
	{"BLACK DIAMOND", "BDI"},
	{"CANARY DIAMOND", "CDI"},
	{"MOISSANITE", "MOI"},
	{"JET", "JET"},

	// Topaz, spinel, chrysoberyl
	{"TOPAZ", "TOP"},
	{"BLUE TOPAZ", "BTP"},
	{"IMPERIAL TOPAZ", "ITP"},
	{"MYSTIC TOPAZ", "MTP"},
	{"SPINEL", "SPI"},
	{"RED SPINEL", "RSP"},
	{"CHRYSOBERYL", "CBE"},
	{"ALEXANDRITE", "ALE"},
	{"CYMOPHANE", "CYM"},

	// Jade and serpentine
	{"JADE", "JAD"},
	{"JADEITE", "JDT"},
	{"NEPHRITE", "NEP"},
	{"SERPENTINE", "SER"},
	{"BOWENITE", "BOW"},

	// Silicates and others
	{"PERIDOT", "PER"},
	{"OLIVINE", "PER"},
	{"ZIRCON", "ZIR"},
	{"TANZANITE", "TAN"},
	{"ZOISITE", "ZOI"},
	{"RUBY ZOISITE", "RZO"},
	{"THULITE", "THU"},
	{"IOLITE", "IOL"},
	{"CORDIERITE", "IOL"},
	{"KUNZITE", "KUN"},
	{"HIDDENITE", "HID"},
	{"SPODUMENE", "SPO"},
	{"APATITE", "APA"},
	{"KYANITE", "KYA"},
	{"SODALITE", "SOD"},
	{"LAPIS LAZULI", "LAP"},
	{"LAZURITE", "LAZ"},
	{"LAZULITE", "LZL"},
	{"SUGILITE", "SUG"},
	{"CHAROITE", "CHO"},
	{"LEPIDOLITE", "LEP"},
	{"SERAPHINITE", "SEP"},
	{"PREHNITE", "PRE"},
	{"EPIDOTE", "EPI"},
	{"UNAKITE", "UNA"},
	{"DIOPSIDE", "DIO"},
	{"CHROME DIOPSIDE", "CDP"},
	{"ENSTATITE", "ENS"},
	{"HYPERSTHENE", "HYP"},
	{"SPHENE", "SPH"},
	{"TITANITE", "SPH"},
	{"BENITOITE", "BEN"},
	{"DUMORTIERITE", "DUM"},
	{"ANDALUSITE", "ADL"},
	{"STAUROLITE", "STA"},
	{"AXINITE", "AXI"},
	{"DANBURITE", "DAN"},
	{"PHENAKITE", "PHE"},
	{"EUCLASE", "EUC"},
	{"IDOCRASE", "IDO"},
	{"VESUVIANITE", "IDO"},
	{"HOWLITE", "HOW"},
	{"MAGNESITE", "MAG"},
	{"ASTROPHYLLITE", "AST"},
	{"AEGIRINE", "AEG"},
	{"NUUMMITE", "NUU"},
	{"LARIMAR", "LAR"},
	{"PECTOLITE", "PEC"},
	{"TURQUOISE", "TUR"},
	{"VARISCITE", "VAR"},
	{"AMBLYGONITE", "AMB"},
	{"BRAZILIANITE", "BRA"},

	// Carbonates, sulfates, halides
	{"MALACHITE", "MLC"},
	{"AZURITE", "AZU"},
	{"RHODOCHROSITE", "RHC"},
	{"RHODONITE", "RHN"},
	{"CALCITE", "CAL"},
	{"ORANGE CALCITE", "OCA"},
	{"HONEY CALCITE", "HCA"},
	{"ARAGONITE", "ARA"},
	{"SMITHSONITE", "SMI"},
	{"CELESTITE", "CEL"},
	{"CELESTINE", "CEL"},
	{"SELENITE", "SEL"},
	{"GYPSUM", "GYP"},
	{"ANHYDRITE", "ANH"},
	{"ANGELITE", "ANG"},
	{"FLUORITE", "FLU"},
	{"RAINBOW FLUORITE", "RFL"},
	{"HALITE", "HAL"},
	{"BARITE", "BAR"},

	// Metallic and oxides
	{"PYRITE", "PYT"},
	{"HEMATITE", "HEM"},
	{"MAGNETITE", "MGN"},
	{"SHUNGITE", "SHU"},
	{"CHALCOPYRITE", "CHP"},
	{"BORNITE", "BOR"},
	{"GALENA", "GAL"},
	{"CINNABAR", "CIN"},
	{"RUTILE", "RUT"},
	{"CASSITERITE", "CAS"},
	{"CUPRITE", "CUP"},
	{"GOLDSTONE", "GOL"},
	{"SILVER", "SLV"},
	{"GOLD", "GLD"},
	{"COPPER", "COP"},
	{"BRONZITE", "BRO"},

	// Organics
	{"PEARL", "PEA"},
	{"AKOYA PEARL", "APE"},
	{"TAHITIAN PEARL", "TPE"},
	{"SOUTH SEA PEARL", "SPL"},
	{"FRESHWATER PEARL", "FPE"},
	{"MOTHER OF PEARL", "MOP"},
	{"AMBER", "AMR"},
	{"CORAL", "COL"},
	{"RED CORAL", "RCO"},
	{"AMMOLITE", "AML"},
	{"ABALONE", "ABA"},
	{"IVORY", "IVO"},
	{"SHELL", "SHE"},

	// Glass and rocks
	{"OBSIDIAN", "OBS"},
	{"SNOWFLAKE OBSIDIAN", "SOB"},
	{"RAINBOW OBSIDIAN", "ROB"},
	{"APACHE TEARS", "APT"},
	{"MOLDAVITE", "MLD"},
	{"TEKTITE", "TEK"},
	{"LIBYAN DESERT GLASS", "LDG"},
	{"LAVA STONE", "LAV"},
	{"BASALT", "BAS"},
	{"GRANITE", "GRA"},
	{"MARBLE", "MRB"},
	{"SOAPSTONE", "SOA"},
	{"STEATITE", "SOA"},
	{"SEPTARIAN", "SPT"},
	{"STROMATOLITE", "STR"},
	{"FOSSIL", "FOS"},
	{"METEORITE", "MET"},
	{"GEODE", "GEO"},
	{"DRUZY", "DRU"},
}

// Abbreviations returns the ordered gemstone table as name/code pairs.
func Abbreviations() [][2]string {
	out := make([][2]string, len(abbreviationTable))
	for i, a := range abbreviationTable {
		out[i] = [2]string{a.Name, a.Code}
	}
	return out
}
