package fleet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Prefijos de códigos internos por tipo de entidad.
const (
	PrefijoIncidencia = "INC"
	PrefijoAutobus    = "BUS"
	prefijoEquipoDef  = "EQP"
)

// prefijosEquipo maps equipment types to their code prefix. Unknown types
// fall back to EQP.
var prefijosEquipo = map[string]string{
	"amplificador":       "AMP",
	"cpu":                "CPU",
	"licencia_software":  "LIC",
	"switch":             "SWT",
	"router":             "RTR",
	"modulo_wifi":        "WIF",
	"comunicacion":       "COM",
	"camara":             "CAM",
	"pupitre":            "PUP",
	"validadora":         "VAL",
	"ip_fija":            "IPF",
	"sim_card":           "SIM",
	"dvr":                "DVR",
	"pantalla":           "PAN",
	"contador_pasajeros": "CNT",
}

var codigoIncidenciaRe = regexp.MustCompile(`^INC-\d{4}-\d{5}$`)

// GenerarCodigoIncidencia formats an incident code: INC-{año}-{correlativo}.
func GenerarCodigoIncidencia(correlativo, anio int) string {
	return fmt.Sprintf("%s-%d-%05d", PrefijoIncidencia, anio, correlativo)
}

// GenerarCodigoEquipo formats an equipment code: {PREFIJO}-{bus}-{índice}.
func GenerarCodigoEquipo(tipoEquipo, codigoBus string, indice int) string {
	prefijo, ok := prefijosEquipo[tipoEquipo]
	if !ok {
		prefijo = prefijoEquipoDef
	}
	return fmt.Sprintf("%s-%s-%03d", prefijo, codigoBus, indice)
}

// EsCodigoIncidenciaValido validates the INC-YYYY-NNNNN shape.
func EsCodigoIncidenciaValido(codigo string) bool {
	return codigoIncidenciaRe.MatchString(codigo)
}

// ExtraerCorrelativo pulls the trailing sequence number out of a code, or
// (0, false) when there is none.
func ExtraerCorrelativo(codigo string) (int, bool) {
	partes := strings.Split(codigo, "-")
	n, err := strconv.Atoi(partes[len(partes)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ExtraerAnio pulls the year segment out of a code, or (0, false) when the
// code carries none.
func ExtraerAnio(codigo string) (int, bool) {
	for _, parte := range strings.Split(codigo, "-") {
		if n, err := strconv.Atoi(parte); err == nil && n >= 2020 && n <= 2099 {
			return n, true
		}
	}
	return 0, false
}

// SiguienteCodigoIncidencia derives the next code after ultimo for anio. The
// sequence restarts at 1 on a year change or when there is no previous code.
func SiguienteCodigoIncidencia(ultimo string, anio int) string {
	anioUltimo, ok := ExtraerAnio(ultimo)
	if !ok || anioUltimo != anio {
		return GenerarCodigoIncidencia(1, anio)
	}
	correlativo, ok := ExtraerCorrelativo(ultimo)
	if !ok {
		correlativo = 0
	}
	return GenerarCodigoIncidencia(correlativo+1, anio)
}
