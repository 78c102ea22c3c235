package sentiment

var polarity = map[string]float64{
	"amazing":       0.8,
	"awesome":       0.8,
	"excellent":     0.9,
	"outstanding":   0.9,
	"fantastic":     0.8,
	"wonderful":     0.8,
	"superb":        0.9,
	"brilliant":     0.8,
	"perfect":       1.0,
	"best":          0.9,
	"great":         0.7,
	"good":          0.6,
	"nice":          0.5,
	"fine":          0.3,
	"decent":        0.3,
	"solid":         0.4,
	"love":          0.7,
	"loved":         0.7,
	"enjoy":         0.5,
	"enjoyed":       0.5,
	"enjoyable":     0.5,
	"helpful":       0.6,
	"useful":        0.5,
	"valuable":      0.6,
	"clear":         0.4,
	"concise":       0.3,
	"engaging":      0.6,
	"interesting":   0.5,
	"informative":   0.5,
	"insightful":    0.6,
	"practical":     0.4,
	"recommend":     0.5,
	"recommended":   0.5,
	"easy":          0.4,
	"fun":           0.5,
	"happy":         0.6,
	"satisfied":     0.5,
	"thorough":      0.4,
	"knowledgeable": 0.5,
	"worth":         0.4,
	"worthwhile":    0.5,
	"thanks":        0.3,
	"thank":         0.3,
	"well":          0.2,

	"bad":           -0.6,
	"poor":          -0.6,
	"terrible":      -0.9,
	"awful":         -0.9,
	"horrible":      -0.9,
	"worst":         -1.0,
	"useless":       -0.8,
	"boring":        -0.6,
	"dull":          -0.5,
	"confusing":     -0.5,
	"confused":      -0.4,
	"unclear":       -0.5,
	"outdated":      -0.5,
	"disappointing": -0.7,
	"disappointed":  -0.6,
	"waste":         -0.8,
	"hate":          -0.8,
	"hated":         -0.8,
	"annoying":      -0.6,
	"frustrating":   -0.6,
	"difficult":     -0.3,
	"hard":          -0.2,
	"slow":          -0.3,
	"shallow":       -0.4,
	"superficial":   -0.4,
	"overpriced":    -0.6,
	"expensive":     -0.3,
	"wrong":         -0.5,
	"broken":        -0.6,
	"mediocre":      -0.4,
	"misleading":    -0.7,
	"repetitive":    -0.4,
	"lacking":       -0.4,
	"messy":         -0.4,
	"sloppy":        -0.5,
}

var intensifiers = map[string]float64{
	"very":       1.3,
	"really":     1.3,
	"so":         1.2,
	"extremely":  1.5,
	"incredibly": 1.5,
	"highly":     1.3,
	"super":      1.3,
	"truly":      1.2,
	"absolutely": 1.4,
	"quite":      1.1,
	"pretty":     1.1,
	"slightly":   0.5,
	"somewhat":   0.6,
	"barely":     0.4,
	"little":     0.6,
}

var negations = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"neither": true,
	"nor":     true,
	"nothing": true,
	"without": true,
}
