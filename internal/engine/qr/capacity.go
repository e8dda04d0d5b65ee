package qr

// Maximum alphanumeric-mode character capacity per version (1..40) per error
// correction level, from the QR specification. Advisory metadata only: the
// symbol encoder picks the real encoding mode (numeric/alphanumeric/byte), so
// byte-mode content can need a larger version than this table suggests.
var alphanumericCapacity = map[ECCLevel][40]int{
	ECCLow: {
		25, 47, 77, 114, 154, 195, 224, 279, 335, 395,
		468, 535, 619, 667, 758, 854, 938, 1046, 1153, 1249,
		1352, 1460, 1588, 1704, 1853, 1990, 2132, 2223, 2369, 2520,
		2677, 2840, 3009, 3183, 3351, 3537, 3729, 3927, 4087, 4296,
	},
	ECCMedium: {
		20, 38, 61, 90, 122, 154, 178, 221, 262, 311,
		366, 419, 483, 528, 600, 656, 734, 816, 909, 970,
		1035, 1134, 1248, 1326, 1451, 1542, 1637, 1732, 1839, 1994,
		2113, 2238, 2369, 2506, 2632, 2780, 2894, 3054, 3220, 3391,
	},
	ECCQuartile: {
		16, 29, 47, 67, 87, 108, 125, 157, 189, 221,
		259, 296, 352, 376, 426, 470, 531, 574, 644, 702,
		742, 823, 890, 963, 1041, 1094, 1172, 1263, 1322, 1429,
		1499, 1618, 1700, 1787, 1867, 1966, 2071, 2181, 2298, 2420,
	},
	ECCHigh: {
		10, 20, 35, 50, 64, 84, 93, 122, 143, 174,
		200, 227, 259, 283, 321, 365, 408, 452, 493, 557,
		587, 640, 672, 744, 779, 864, 910, 958, 1016, 1080,
		1150, 1226, 1307, 1394, 1431, 1530, 1591, 1658, 1774, 1852,
	},
}

// EstimateVersion returns the smallest version (1..40) whose alphanumeric
// capacity at the given level fits content of the given length. Clamps to 40
// when nothing fits. Unknown levels fall back to M.
func EstimateVersion(length int, level ECCLevel) int {
	capacities, ok := alphanumericCapacity[level]
	if !ok {
		capacities = alphanumericCapacity[ECCMedium]
	}
	for i, capacity := range capacities {
		if length <= capacity {
			return i + 1
		}
	}
	return 40
}

// Modules returns the grid width in modules for a version: 21 for version 1,
// growing by 4 per version up to 177 for version 40.
func Modules(version int) int {
	if version < 1 {
		version = 1
	}
	if version > 40 {
		version = 40
	}
	return 21 + (version-1)*4
}
