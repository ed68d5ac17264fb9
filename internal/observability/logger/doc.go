// Package logger expone un zap singleton con scoping por contexto.
//
// El middleware HTTP inyecta un logger con request_id vía ToContext; los
// services lo recuperan con From(ctx) y agregan sus campos de dominio
// (Provider, FlowID, LessonID). En dev loguea consola con colores, en
// prod JSON.
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth"))
//	log.Info("acceso federado", logger.UserID(uid), logger.Provider(p))
package logger
