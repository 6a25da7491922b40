package compositor

// bayer8 is the classic 8×8 ordered-dither matrix, values 0-63.
var bayer8 = [8][8]int{
	{0, 32, 8, 40, 2, 34, 10, 42},
	{48, 16, 56, 24, 50, 18, 58, 26},
	{12, 44, 4, 36, 14, 46, 6, 38},
	{60, 28, 52, 20, 62, 30, 54, 22},
	{3, 35, 11, 43, 1, 33, 9, 41},
	{51, 19, 59, 27, 49, 17, 57, 25},
	{15, 47, 7, 39, 13, 45, 5, 37},
	{63, 31, 55, 23, 61, 29, 53, 21},
}

// blueNoise16 is a 16×16 blue-noise threshold table with values in 0-255
// (a few values repeat, so it is not a strict ranking), kept as constant
// data like the Bayer matrix.
var blueNoise16 = [16][16]int{
	{111, 49, 180, 23, 201, 137, 76, 229, 8, 160, 92, 243, 39, 124, 211, 67},
	{195, 84, 238, 129, 58, 17, 170, 105, 188, 53, 217, 13, 153, 86, 28, 166},
	{5, 146, 33, 97, 222, 249, 41, 132, 28, 236, 118, 71, 192, 232, 103, 140},
	{230, 121, 207, 164, 74, 113, 90, 214, 68, 148, 3, 175, 47, 62, 18, 83},
	{56, 44, 10, 186, 30, 152, 197, 0, 182, 98, 205, 127, 221, 158, 202, 117},
	{176, 156, 251, 66, 134, 240, 52, 122, 37, 253, 24, 88, 7, 95, 36, 247},
	{21, 101, 87, 115, 216, 14, 81, 162, 225, 59, 143, 190, 167, 131, 72, 145},
	{193, 227, 138, 46, 172, 106, 245, 142, 19, 110, 78, 42, 235, 11, 219, 61},
	{119, 34, 6, 199, 63, 26, 185, 93, 209, 173, 2, 203, 54, 108, 151, 94},
	{241, 149, 179, 125, 233, 155, 50, 70, 128, 45, 231, 135, 85, 183, 25, 169},
	{77, 55, 99, 16, 82, 1, 213, 254, 31, 161, 100, 15, 250, 40, 223, 133},
	{187, 212, 144, 248, 191, 112, 139, 9, 194, 80, 215, 163, 69, 120, 4, 104},
	{29, 65, 35, 73, 51, 224, 64, 154, 116, 244, 22, 48, 198, 157, 237, 150},
	{171, 252, 126, 165, 12, 174, 96, 204, 38, 136, 181, 109, 27, 89, 57, 20},
	{91, 43, 196, 102, 239, 79, 32, 228, 60, 255, 75, 220, 147, 242, 178, 114},
	{218, 141, 75, 226, 130, 189, 159, 107, 177, 123, 0, 168, 36, 67, 123, 200},
}

// ditherOffset returns the signed luminance perturbation for pixel (x, y),
// scaled so the adjustment spans one character step of the active ramp.
func ditherOffset(mode int, x, y int, step float64) float64 {
	switch mode {
	case 1: // Bayer 8x8
		t := float64(bayer8[y&7][x&7])/64.0 - 0.5
		return t * step
	case 2: // Blue noise 16x16
		t := float64(blueNoise16[y&15][x&15])/256.0 - 0.5
		return t * step
	default:
		return 0
	}
}
