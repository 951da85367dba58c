// Package fuzztests houses Go fuzz harnesses for the front half of the
// scratchc pipeline (project.json -> sb3 -> lower -> emit). Их цель: ловить
// паники и зависания на произвольных документах.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests
