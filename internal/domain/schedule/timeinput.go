package schedule

// FormatPartialTime renders an in-progress HH:MM entry from raw keyboard
// input. Non-digits are discarded, input is capped at four digits, and the
// colon appears once the hour is complete. It makes no validity judgment;
// that is ValidateDoseTimes' job on submit.
func FormatPartialTime(raw string) string {
	digits := make([]byte, 0, 4)
	for i := 0; i < len(raw) && len(digits) < 4; i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) <= 2 {
		return string(digits)
	}
	return string(digits[:2]) + ":" + string(digits[2:])
}
