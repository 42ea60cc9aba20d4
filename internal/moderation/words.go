package moderation

// baseWords is the built-in profanity dictionary. It covers the common
// English terms the community guidelines reject outright.
var baseWords = []string{
	"anal",
	"anus",
	"arse",
	"ass",
	"asshole",
	"bastard",
	"bitch",
	"bollocks",
	"boob",
	"bugger",
	"bullshit",
	"clit",
	"cock",
	"crap",
	"cunt",
	"damn",
	"dick",
	"dildo",
	"dyke",
	"fag",
	"faggot",
	"fuck",
	"fucker",
	"fucking",
	"goddamn",
	"handjob",
	"hell",
	"homo",
	"jerk",
	"jizz",
	"kike",
	"motherfucker",
	"nigga",
	"nigger",
	"penis",
	"piss",
	"porn",
	"prick",
	"pussy",
	"retard",
	"scrotum",
	"sex",
	"shit",
	"slut",
	"spic",
	"tit",
	"twat",
	"vagina",
	"wank",
	"whore",
}

// supplementalWords is the curated pt-BR list layered on top of the base
// dictionary. Mostly mild insults that the base list never covers.
var supplementalWords = []string{
	"trouxa",
	"idiota",
	"imbecil",
	"burro",
	"lixo",
	"merda",
	"bosta",
	"droga",
	"feio",
	"horrivel",
	"odiei",
	"puta",
	"caralho",
}
