package siswa

import "regexp"

// Field rules are kept as a data table so they can be tested exhaustively
// and extended without touching control flow.
type fieldRule struct {
	min      int
	max      int
	pattern  *regexp.Regexp
	badValue string // message when the pattern does not match
	optional bool
}

var siswaRules = map[string]fieldRule{
	"nama": {
		min: 3, max: 100,
		pattern:  regexp.MustCompile(`^[a-zA-Z\s]+$`),
		badValue: "Nama hanya boleh mengandung huruf dan spasi",
	},
	"nis": {
		min: 5, max: 20,
		pattern:  regexp.MustCompile(`^[0-9]+$`),
		badValue: "NIS hanya boleh mengandung angka",
	},
	"kelas": {
		min: 2, max: 10,
		pattern:  regexp.MustCompile(`^[XIV]{1,2}-[A-Z]+-[0-9]+$`),
		badValue: "Format kelas tidak valid (contoh: X-IPA-1)",
	},
	"jurusan": {
		min: 2, max: 50,
	},
	"email": {
		max:      100,
		pattern:  regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
		badValue: "Email tidak valid",
		optional: true,
	},
	"telepon": {
		pattern:  regexp.MustCompile(`^(\+62|62|0)[0-9]{9,13}$`),
		badValue: "Format nomor telepon tidak valid",
		optional: true,
	},
	"alamat": {
		max:      500,
		optional: true,
	},
}

func checkField(name, value string) string {
	rule := siswaRules[name]

	if value == "" {
		if rule.optional {
			return ""
		}
		return name + " wajib diisi"
	}
	if rule.min > 0 && len(value) < rule.min {
		return name + " terlalu pendek"
	}
	if rule.max > 0 && len(value) > rule.max {
		return name + " terlalu panjang"
	}
	if rule.pattern != nil && !rule.pattern.MatchString(value) {
		return rule.badValue
	}
	return ""
}

// ValidateCreate checks a create payload, returning a field→message map.
// An empty map means the payload is valid.
func ValidateCreate(in CreateInput) map[string]string {
	errs := make(map[string]string)
	fields := map[string]string{
		"nama":    in.Nama,
		"nis":     in.NIS,
		"kelas":   in.Kelas,
		"jurusan": in.Jurusan,
		"email":   in.Email,
		"telepon": in.Telepon,
		"alamat":  in.Alamat,
	}
	for name, value := range fields {
		if msg := checkField(name, value); msg != "" {
			errs[name] = msg
		}
	}
	return errs
}

// ValidateUpdate checks only the fields present in a partial update.
func ValidateUpdate(in UpdateInput) map[string]string {
	errs := make(map[string]string)
	fields := map[string]*string{
		"nama":    in.Nama,
		"nis":     in.NIS,
		"kelas":   in.Kelas,
		"jurusan": in.Jurusan,
		"email":   in.Email,
		"telepon": in.Telepon,
		"alamat":  in.Alamat,
	}
	for name, value := range fields {
		if value == nil {
			continue
		}
		if msg := checkField(name, *value); msg != "" {
			errs[name] = msg
		}
	}
	return errs
}
