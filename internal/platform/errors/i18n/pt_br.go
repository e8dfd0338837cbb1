package i18n

var ptBR = map[Code]string{
	"MISSING_EVENT_TIMESTAMP": "A data do evento é obrigatória.",
	"MISSING_EVENT_TYPE":      "O tipo do evento é obrigatório.",
	"MISSING_TITLE":           "O título é obrigatório.",
	"MISSING_CLINICAL_RECORD": "O prontuário é obrigatório.",
	"MISSING_CONTENT":         "O conteúdo é obrigatório.",
	"MISSING_PATIENT":         "O paciente é obrigatório.",

	"INVALID_TIMESTAMP_FUTURE": "A data do evento {{.event_date}} está no futuro.",
	"INVALID_EVENT_TYPE":       "{{.event_type}} não é um tipo de evento reconhecido.",
	"INVALID_DATE_RANGE":       "A data inicial não pode ser posterior à data final.",
	"INVALID_SOURCE_REFERENCE": "A referência de origem do evento é inválida.",

	"PATIENT_NOT_FOUND":         "Paciente não encontrado.",
	"CLINICAL_RECORD_NOT_FOUND": "Prontuário não encontrado.",
	"NOTE_NOT_FOUND":            "Nota não encontrada.",
	"MEDICATION_NOT_FOUND":      "Medicamento não encontrado.",
	"EVENT_NOT_FOUND":           "Evento da linha do tempo não encontrado.",
	"APPOINTMENT_NOT_FOUND":     "Consulta não encontrada.",

	"NOTE_ALREADY_FINALIZED":                          "Esta nota foi finalizada e não pode mais ser alterada. Adicione um adendo.",
	"NOTE_NOT_FINALIZED":                              "Adendos só podem ser adicionados a notas finalizadas.",
	"MEDICATION_ALREADY_DISCONTINUED":                 "Este medicamento já foi descontinuado.",
	"MEDICATION_NOT_ACTIVE":                           "Este medicamento não estava ativo em {{.event_date}}.",
	"MEDICATION_NOT_ACTIVE_CANNOT_ISSUE_PRESCRIPTION": "Receitas só podem ser emitidas para medicamentos ativos.",
	"APPOINTMENT_INVALID_TRANSITION":                  "Esta consulta já está {{.status}}.",

	"INVALID_STATE":      "A linha do tempo do paciente está inconsistente e não pôde ser reconstruída.",
	"SOURCE_UNAVAILABLE": "O registro de origem deste evento não está disponível.",
}
