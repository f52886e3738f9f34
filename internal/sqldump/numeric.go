package sqldump

import "strconv"

func parseInt(digits []byte) (int64, error) {
	return strconv.ParseInt(string(digits), 10, 64)
}

func parseFloat(digits []byte) (float64, error) {
	return strconv.ParseFloat(string(digits), 64)
}
