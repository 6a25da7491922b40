package config

// Charsets is the fixed rotation pool the director cycles through. Each entry
// is ordered from lightest to densest glyph so the luminance ramp stays
// monotonic.
var Charsets = []string{
	" .:-=+*#%@",
	" .'`^\",:;Il!i><~+_-?][}{1)(|\\/tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$",
	" ░▒▓█",
	" .oO0@",
	" ▁▂▃▄▅▆▇█",
	" .,:;i1tfLCG08@",
	" ·∙•●",
	" -=≡#",
	" ⠁⠃⠇⠏⠟⠿⡿⣿",
	" ╷╽┃",
	" ▖▌▛█",
}
