package utils

import (
    "crypto/rand"
    "strconv"
    "strings"
    "time"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewBookingReference returns a customer-facing booking code of the form
// FB<base36 timestamp><3 random chars>, e.g. FBLX2K9A1QZ.  The timestamp
// component makes references roughly sortable by creation time; the random
// suffix disambiguates bookings created in the same second.  Collisions are
// still possible and must be handled by the unique constraint on the
// bookings table.
func NewBookingReference(now time.Time) (string, error) {
    ts := strings.ToUpper(strconv.FormatInt(now.Unix(), 36))
    buf := make([]byte, 3)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    var sb strings.Builder
    sb.WriteString("FB")
    sb.WriteString(ts)
    for _, b := range buf {
        sb.WriteByte(referenceAlphabet[int(b)%len(referenceAlphabet)])
    }
    return sb.String(), nil
}
